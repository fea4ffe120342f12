// Package reclaim is a client for the Reclaim.ai task scheduling API.
//
// A Client holds the credentials and the HTTP connection. The token is taken
// from WithToken, then RECLAIM_TOKEN, then the [reclaim_ai] token entry of
// ~/.reclaim.toml.
//
//	client, err := reclaim.NewClient()
//	if err != nil {
//		return err
//	}
//	tasks := reclaim.NewTasks(client)
//
//	task := &reclaim.Task{Title: "Write report"}
//	task.SetDuration(2.5)
//	if err := tasks.Save(ctx, task); err != nil {
//		return err
//	}
//
//	err = tasks.Edit(ctx, task, func(t *reclaim.Task) error {
//		t.SetUpNext(true)
//		t.SetDueDate(time.Now().Add(48 * time.Hour))
//		return nil
//	})
//
// Durations are stored by the API in 15 minute chunks; the hour accessors on
// Task round to the nearest chunk. Errors can be matched with errors.Is
// against ErrAuthentication, ErrRecordNotFound, ErrInvalidRecord, ErrAPI,
// ErrValidation and ErrUnsupportedOperation.
package reclaim

// Package tui renders tandem's terminal output with lipgloss.
//
// Everything here is a pure function of its input: worker status cards for
// `tandem status`, a task summary for `tandem run`, an analysis block for
// `tandem classify` and a one-line progress bar that is redrawn as
// notifications arrive.
//
// Usage:
//
//	fmt.Println(tui.NewHeader().View())
//	fmt.Println(tui.RenderWorkers(orch.Status(ctx), 80))
//	fmt.Println(tui.RenderTask(task))
package tui

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/casetime/pkg/timer"
	"github.com/harrisonrobin/casetime/pkg/tracker"
	"github.com/harrisonrobin/casetime/pkg/util"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [case-number] [task name...]",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runAdd,
}

var startCmd = &cobra.Command{
	Use:   "start [case-number]",
	Short: "Start the timer of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop [case-number]",
	Short: "Stop the timer of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks with their accumulated time",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var deleteCmd = &cobra.Command{
	Use:     "delete [case-number]",
	Aliases: []string{"rm"},
	Short:   "Delete a stopped task here and in the sheet",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var deleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every task here and in the sheet",
	Args:  cobra.NoArgs,
	RunE:  runDeleteAll,
}

var deleteAllYes bool

func init() {
	deleteAllCmd.Flags().BoolVarP(&deleteAllYes, "yes", "y", false, "do not ask for confirmation")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	task, err := a.tracker.AddTask(strings.Join(args[1:], " "), args[0])
	if err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render(fmt.Sprintf("Task '%s' added successfully!", task.Name)))
	return a.save()
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	if err := a.tracker.Start(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", badgeRunning, styleCase.Render(args[0]))
	return a.save()
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	if err := a.tracker.Stop(args[0]); err != nil {
		return err
	}
	for _, v := range a.tracker.Tasks() {
		if v.Task.CaseNumber == strings.TrimSpace(args[0]) {
			fmt.Printf("%s %s  %s\n", badgeStopped, styleCase.Render(v.Task.CaseNumber), styleValue.Render(util.FormatDuration(v.Elapsed)))
		}
	}
	return a.save()
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	views := a.tracker.Tasks()
	if len(views) == 0 {
		fmt.Println("No tasks. Run 'casetime add <case-number> <name>' to create one.")
		return a.save()
	}
	printTasks(os.Stdout, views)
	return a.save()
}

func printTasks(w io.Writer, views []tracker.View) {
	fmt.Fprintln(w, styleTitle.Render("Task List"))
	for _, v := range views {
		badge := badgeStopped.String()
		if v.State == timer.RUNNING {
			badge = badgeRunning.String()
		}
		header := lipgloss.JoinHorizontal(lipgloss.Top,
			styleCase.Render(v.Task.CaseNumber), "  ",
			styleValue.Render(v.Task.Name), "  ",
			badge,
		)
		fmt.Fprintf(w, "\n  %s\n", header)
		if v.Task.HasStart() {
			fmt.Fprintf(w, "    %s %s\n", styleLabel.Render("Started:     "), util.FormatTimestamp(v.Task.Start))
		}
		if v.Task.HasStop() {
			fmt.Fprintf(w, "    %s %s\n", styleLabel.Render("Last Stopped:"), util.FormatTimestamp(v.Task.Stop))
		}
		fmt.Fprintf(w, "    %s %s %s\n", styleLabel.Render("Total Time:  "),
			styleValue.Render(util.FormatHours(v.Elapsed)+" hours"),
			styleHint.Render("("+util.FormatDuration(v.Elapsed)+")"))
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	res := a.tracker.Delete(cmd.Context(), args[0])
	if err := a.save(); err != nil {
		return err
	}
	return report(res)
}

func runDeleteAll(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	n := a.store.Len()
	if n == 0 {
		fmt.Println("No tasks to delete.")
		return nil
	}
	if !deleteAllYes && !confirm(os.Stdin, fmt.Sprintf("Delete all %d tasks here and in the sheet? [y/N]: ", n)) {
		fmt.Println(styleHint.Render("Aborted."))
		return nil
	}
	res := a.tracker.DeleteAll(cmd.Context())
	if err := a.save(); err != nil {
		return err
	}
	return report(res)
}

func confirm(r io.Reader, prompt string) bool {
	fmt.Print(styleWarning.Render(prompt))
	answer, _ := bufio.NewReader(r).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

package notify

import "fmt"

// CompletionText renders the message sent when a task is completed.
func CompletionText(taskTitle string) string {
	return fmt.Sprintf("🎉 Great job! You've completed the task: '%s'", taskTitle)
}

// ReminderText renders the periodic message sent while a timer keeps running.
func ReminderText(taskTitle string, elapsedMinutes, estimatedMinutes int) string {
	return fmt.Sprintf(
		"⏰ Reminder: You've been working on '%s' for %d minutes.\nEstimated time was %d minutes.",
		taskTitle, elapsedMinutes, estimatedMinutes,
	)
}

// TimeUpText renders the message sent when a task's recorded time reaches
// its estimate.
func TimeUpText(taskTitle string) string {
	return fmt.Sprintf("⏱️ Time's up! You've reached the estimated time for: '%s'", taskTitle)
}

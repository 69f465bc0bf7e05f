package service

import "time"

const (
	taskStreamName     = "TASKS"
	taskCreatedSubject = "task.created"
	taskUpdatedSubject = "task.updated"
	taskDeletedSubject = "task.deleted"

	scheduleStreamName     = "SCHEDULE"
	scheduleUpdatedSubject = "schedule.updated"

	streamMaxAge     = 24 * time.Hour
	streamMaxMsgs    = -1
	operationTimeout = 30 * time.Second
)

// Package messages contains the NATS subjects and bucket names used by the
// control plane.
package messages

// API subjects answered by the workflow runtime bridge.
const (
	APIRootAndActiveSubProcesses = "MTA.API.Engine.RootAndActiveSubProcesses"
	APIExecutionsAtReceiveTask   = "MTA.API.Engine.ExecutionsAtReceiveTask"
	APIDeadLetterJobs            = "MTA.API.Engine.DeadLetterJobs"
	APIMoveDeadLetterJob         = "MTA.API.Engine.MoveDeadLetterJob"
	APIGetVariable               = "MTA.API.Engine.GetVariable"
	APISetVariable               = "MTA.API.Engine.SetVariable"
	APITrigger                   = "MTA.API.Engine.Trigger"
	APIGetProcessInstance        = "MTA.API.Engine.GetProcessInstance"
	APISuspendProcessInstance    = "MTA.API.Engine.SuspendProcessInstance"
	APIActivateProcessInstance   = "MTA.API.Engine.ActivateProcessInstance"
	APIDeleteProcessInstance     = "MTA.API.Engine.DeleteProcessInstance"
	APIExecutionsUnderRoot       = "MTA.API.Engine.ExecutionsUnderRoot"
	APIDeadLetterJobsForTree     = "MTA.API.Engine.DeadLetterJobsForTree"
)

// KV bucket names.
const (
	KvOperation = "MTAOperation" // KvOperation holds one record per deployment operation.
	KvHistory   = "MTAHistory"   // KvHistory holds append-only historic operation events.
)

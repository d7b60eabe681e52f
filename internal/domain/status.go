package domain

// Kind distinguishes the two tracked background operations.
type Kind string

const (
	KindProvision Kind = "provision"
	KindDeletion  Kind = "deletion"
)

// Status is a lifecycle status reported for a tracked entity.
type Status string

// Provisioning statuses, in nominal progression order. The order is
// advisory: events are never rejected for arriving out of sequence.
const (
	StatusQueued             Status = "queued"
	StatusProvisioning       Status = "provisioning"
	StatusValidatingPackage  Status = "validating_package"
	StatusCreatingProject    Status = "creating_project"
	StatusForking            Status = "forking"
	StatusCreatingRepo       Status = "creating_repo"
	StatusCloning            Status = "cloning"
	StatusSettingUp          Status = "setting_up"
	StatusInstallingComposer Status = "installing_composer"
	StatusInstallingNPM      Status = "installing_npm"
	StatusBuilding           Status = "building"
	StatusFinalizing         Status = "finalizing"
	StatusReady              Status = "ready"
	StatusFailed             Status = "failed"
)

// Deletion statuses.
const (
	StatusDeleting      Status = "deleting"
	StatusRemovingFiles Status = "removing_files"
	StatusDeleted       Status = "deleted"
	StatusDeleteFailed  Status = "delete_failed"
)

var provisionStatuses = map[Status]struct{}{
	StatusQueued: {}, StatusProvisioning: {}, StatusValidatingPackage: {},
	StatusCreatingProject: {}, StatusForking: {}, StatusCreatingRepo: {},
	StatusCloning: {}, StatusSettingUp: {}, StatusInstallingComposer: {},
	StatusInstallingNPM: {}, StatusBuilding: {}, StatusFinalizing: {},
	StatusReady: {}, StatusFailed: {},
}

var deletionStatuses = map[Status]struct{}{
	StatusDeleting: {}, StatusRemovingFiles: {},
	StatusDeleted: {}, StatusDeleteFailed: {},
}

// Classify maps a status to its operation kind. The second return is false
// for a status outside both fixed sets; callers must ignore such events
// rather than corrupt a record.
func Classify(s Status) (Kind, bool) {
	if _, ok := deletionStatuses[s]; ok {
		return KindDeletion, true
	}
	if _, ok := provisionStatuses[s]; ok {
		return KindProvision, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is expected after s.
func IsTerminal(s Status) bool {
	switch s {
	case StatusReady, StatusFailed, StatusDeleted, StatusDeleteFailed:
		return true
	}
	return false
}

// IsSuccess reports whether s is a successful terminal status. Only these
// increment the completion counters.
func IsSuccess(s Status) bool {
	return s == StatusReady || s == StatusDeleted
}

// SuccessStatus returns the successful terminal status for a kind.
func SuccessStatus(k Kind) Status {
	if k == KindDeletion {
		return StatusDeleted
	}
	return StatusReady
}

// FailureStatus returns the failed terminal status for a kind.
func FailureStatus(k Kind) Status {
	if k == KindDeletion {
		return StatusDeleteFailed
	}
	return StatusFailed
}

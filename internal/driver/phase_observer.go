package driver

// Stage is the step a file is in.
type Stage uint8

const (
	StageQueued Stage = iota
	StageParse
	StageAddress
	StageNoCloning
	StageSchedule
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parsing"
	case StageAddress:
		return "addressing"
	case StageNoCloning:
		return "checking"
	case StageSchedule:
		return "scheduling"
	}
	return "queued"
}

// Status reports how far a stage got.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
	StatusCached
)

// Event is sent to Options.Events as files move through the pipeline.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}

func (o *Options) emit(file string, stage Stage, status Status) {
	if o.Events == nil {
		return
	}
	o.Events <- Event{File: file, Stage: stage, Status: status}
}

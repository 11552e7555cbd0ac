package pipeline

// Stage is a step of a run, numbered from 1.
type Stage int

const (
	StageInit Stage = iota + 1
	StageLoadCache
	StageDetectChanges
	StageFetch
	StageResolveArtwork
	StageAssemble
	StagePersist
)

var stageNames = map[Stage]string{
	StageInit:           "init",
	StageLoadCache:      "load_cache",
	StageDetectChanges:  "detect_changes",
	StageFetch:          "fetch",
	StageResolveArtwork: "resolve_artwork",
	StageAssemble:       "assemble",
	StagePersist:        "persist",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "idle"
}

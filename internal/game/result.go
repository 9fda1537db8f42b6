package game

// EvaluationRequest is the body sent to the authoritative evaluator and to
// the export endpoint.
type EvaluationRequest struct {
	MapName       string       `json:"map_name"`
	Btn           int          `json:"btn"`
	SecondPlayer  bool         `json:"second_player"`
	HitWindowMs   float64      `json:"hit_window_ms"`
	HoldMinFrames int          `json:"hold_min_frames"`
	InputEvents   []InputEvent `json:"input_events"`
	EndTime       *float64     `json:"end_time"`
	PressOnlyMode bool         `json:"press_only_mode"`
}

type Verdict string

const (
	VerdictHit  Verdict = "hit"
	VerdictMiss Verdict = "miss"
)

type DetailedResult struct {
	Idx           int      `json:"idx"`
	Kind          Kind     `json:"kind"`
	ExpectedT     float64  `json:"expected_t"`
	ExpectedFrame int      `json:"expected_frame"`
	Verdict       Verdict  `json:"verdict"`
	OffsetMs      *float64 `json:"offset_ms"`
	ActualT       *float64 `json:"actual_t"`
}

// Result is the system of record for an attempt.
type Result struct {
	Completion      float64          `json:"completion"` // 0..1
	Hits            float64          `json:"hits"`
	Misses          float64          `json:"misses"`
	MeanEarly       float64          `json:"mean_early"` // ms, 0 when none
	MeanLate        float64          `json:"mean_late"`  // ms, 0 when none
	DetailedResults []DetailedResult `json:"detailed_results"`
}

// Export is a rendered result file produced by the evaluator.
type Export struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

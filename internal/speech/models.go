package speech

// Wire messages of the realtime streaming recognition protocol.

type BeginMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type TurnMessage struct {
	Type            string `json:"type"`
	Transcript      string `json:"transcript"`
	TurnIsFormatted bool   `json:"turn_is_formatted"`
	EndOfTurn       bool   `json:"end_of_turn"`
	Speaker         string `json:"speaker,omitempty"`
}

type TerminationMessage struct {
	Type                 string  `json:"type"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
}

type ErrorMessage struct {
	Type         string `json:"type"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type TerminateMessage struct {
	Type string `json:"type"`
}

package domain

// AudioClip is one finished capture session: raw little-endian 16-bit PCM.
type AudioClip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the clip.
func (c AudioClip) Frames() int {
	channels := c.Channels
	if channels <= 0 {
		channels = 1
	}
	return len(c.PCM) / (2 * channels)
}

// Empty reports whether the clip carries any audio.
func (c AudioClip) Empty() bool {
	return len(c.PCM) == 0
}

// TranscriptKind identifies whether a stream event is partial or final text.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent represents incremental transcription output from a streaming provider.
type TranscriptEvent struct {
	Kind          TranscriptKind `json:"kind"`
	Text          string         `json:"text"`
	IsSpeechFinal bool           `json:"isSpeechFinal"`
}

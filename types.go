package tubesage

import (
	"time"
)

// ContentKind tags the variant of a generated content record.
type ContentKind string

const (
	KindSummary ContentKind = "summary"
	KindQuiz    ContentKind = "quiz"
)

func (k ContentKind) Valid() bool {
	return k == KindSummary || k == KindQuiz
}

// ResourceKey is the canonical identity of a video across every store.
type ResourceKey struct {
	Platform string `json:"platform"`
	VideoID  string `json:"videoId"`
}

func (k ResourceKey) IsZero() bool {
	return k.Platform == "" || k.VideoID == ""
}

func (k ResourceKey) String() string {
	return ComposeKey(k.Platform, k.VideoID)
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Content is a generated summary or quiz. Exactly one of Body or Questions is
// meaningful depending on Kind.
type Content struct {
	Kind      ContentKind    `json:"kind"`
	Body      string         `json:"body,omitempty"`
	Questions []QuizQuestion `json:"questions,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// wire types shared with the generation service

type VideoRef struct {
	Platform string `json:"platform"`
	VideoID  string `json:"videoId"`
	URL      string `json:"url"`
}

type Transcript struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Turn struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

type TranscriptRequest struct {
	Video VideoRef `json:"video"`
}

type TranscriptResponse struct {
	Status     string     `json:"status"`
	Transcript Transcript `json:"transcript"`
	Message    string     `json:"message,omitempty"`
}

type SummaryRequest struct {
	Video      VideoRef   `json:"video"`
	Transcript Transcript `json:"transcript"`
}

type SummaryResponse struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
	Message string `json:"message,omitempty"`
}

type QuizRequest struct {
	Video      VideoRef   `json:"video"`
	Transcript Transcript `json:"transcript"`
}

type QuizResponse struct {
	Status    string         `json:"status"`
	Questions []QuizQuestion `json:"questions"`
	Message   string         `json:"message,omitempty"`
}

type ChatRequest struct {
	Video    VideoRef `json:"video"`
	Question string   `json:"question"`
	History  []Turn   `json:"history,omitempty"`
}

type ChatResponse struct {
	Status  string `json:"status"`
	Answer  string `json:"answer"`
	Message string `json:"message,omitempty"`
}

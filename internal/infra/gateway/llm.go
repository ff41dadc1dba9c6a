package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/client"
	"github.com/totegamma/tubesage/internal/infra/llm"
	"github.com/totegamma/tubesage/platform"
)

const maxTranscriptChars = 50000

var errMalformedQuiz = errors.New("generator returned a malformed quiz")

// LLMGateway fetches transcripts from the remote service and runs the
// summary, quiz and chat prompts against a language model.
type LLMGateway struct {
	client    *client.Client
	model     llm.LLM
	platforms *platform.Registry
}

func NewLLMGateway(cl *client.Client, model llm.LLM, platforms *platform.Registry) *LLMGateway {
	return &LLMGateway{client: cl, model: model, platforms: platforms}
}

func (g *LLMGateway) Transcript(ctx context.Context, key tubesage.ResourceKey) (tubesage.Transcript, error) {
	return g.client.Transcript(ctx, tubesage.VideoRef{Platform: key.Platform, VideoID: key.VideoID, URL: g.platforms.URL(key)})
}

func (g *LLMGateway) Summarize(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) (string, error) {
	res, err := g.model.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an expert at summarizing online videos."},
		{Role: llm.RoleUser, Content: summaryPrompt(transcript)},
	})
	if err != nil {
		return "", errors.Wrap(err, g.model.Name())
	}
	summary := strings.TrimSpace(res.Text)
	if summary == "" {
		return "", fmt.Errorf("%s returned an empty summary", g.model.Name())
	}
	return summary, nil
}

func (g *LLMGateway) Quiz(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) ([]tubesage.QuizQuestion, error) {
	res, err := g.model.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an expert educator writing multiple choice quizzes."},
		{Role: llm.RoleUser, Content: quizPrompt(transcript)},
	})
	if err != nil {
		return nil, errors.Wrap(err, g.model.Name())
	}
	return ParseQuiz(res.Text)
}

func (g *LLMGateway) Answer(ctx context.Context, key tubesage.ResourceKey, question string, history []tubesage.Turn) (string, error) {
	transcript, err := g.Transcript(ctx, key)
	if err != nil {
		return "", err
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: chatPrompt(transcript)}}
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Sender == tubesage.SenderAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	res, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", errors.Wrap(err, g.model.Name())
	}
	answer := strings.TrimSpace(res.Text)
	if answer == "" {
		return "", fmt.Errorf("%s returned an empty answer", g.model.Name())
	}
	return answer, nil
}

func truncate(text string) string {
	if len(text) <= maxTranscriptChars {
		return text
	}
	cut := maxTranscriptChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func titleOf(t tubesage.Transcript) string {
	if t.Title == "" {
		return "Unknown Title"
	}
	return t.Title
}

func summaryPrompt(t tubesage.Transcript) string {
	return fmt.Sprintf(`Video Title: %s

Transcript: %s

Instructions:
1. Provide a concise, well-structured summary of the video (about 100 words).
2. Begin with a one-sentence overview of what the video is about.
3. Summarize the 3-5 key points or topics discussed in the video.
4. Include any important conclusions or takeaways.
5. Use paragraph breaks and bullet points where appropriate.
6. If the transcript has timestamps ([MM:SS]), include the most important ones.

Your summary:`, titleOf(t), truncate(t.Text))
}

func quizPrompt(t tubesage.Transcript) string {
	return fmt.Sprintf(`Based on the following video transcript and title, generate a five-question multiple choice quiz.

Video Title: %s
Transcript: %s

Instructions:
1. Write 5 questions that test understanding of key concepts from the video, from basic recall to critical thinking.
2. Give each question 4 options labeled exactly "A. [option text]", "B. [option text]", "C. [option text]" and "D. [option text]", with only one correct answer.
3. The answer is just the letter (A, B, C or D).
4. Respond with ONLY a JSON object of this exact shape:

{"questions": [{"question": "Question text", "options": ["A. Option 1", "B. Option 2", "C. Option 3", "D. Option 4"], "answer": "A"}]}`, titleOf(t), truncate(t.Text))
}

func chatPrompt(t tubesage.Transcript) string {
	return fmt.Sprintf(`You answer questions about a single video using only its transcript.

Video Title: %s
Transcript: %s

Rules:
- Answer strictly from the transcript. If it does not contain the answer, say what is missing.
- Reference timestamps when the transcript has them.
- Keep answers clear and structured, using bullet points where they help.
- Reply in the language the user writes in.`, titleOf(t), truncate(t.Text))
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseQuiz extracts a quiz from model output. Fenced code blocks and text
// around the JSON object are tolerated; both the "questions" and "quiz"
// field names are accepted.
func ParseQuiz(text string) ([]tubesage.QuizQuestion, error) {
	raw := strings.TrimSpace(text)
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	} else if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var payload struct {
		Questions []tubesage.QuizQuestion `json:"questions"`
		Quiz      []tubesage.QuizQuestion `json:"quiz"`
	}
	err := json.Unmarshal([]byte(raw), &payload)
	if err != nil {
		return nil, errors.Wrap(errMalformedQuiz, err.Error())
	}

	questions := payload.Questions
	if len(questions) == 0 {
		questions = payload.Quiz
	}
	if len(questions) == 0 || !tubesage.QuizValid(questions) {
		return nil, errMalformedQuiz
	}
	return questions, nil
}

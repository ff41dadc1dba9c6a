package gateway

import (
	"context"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/client"
	"github.com/totegamma/tubesage/platform"
)

// RemoteGateway delegates every generation step to the remote generation
// service.
type RemoteGateway struct {
	client    *client.Client
	platforms *platform.Registry
}

func NewRemoteGateway(cl *client.Client, platforms *platform.Registry) *RemoteGateway {
	return &RemoteGateway{client: cl, platforms: platforms}
}

func (g *RemoteGateway) video(key tubesage.ResourceKey) tubesage.VideoRef {
	return tubesage.VideoRef{Platform: key.Platform, VideoID: key.VideoID, URL: g.platforms.URL(key)}
}

func (g *RemoteGateway) Transcript(ctx context.Context, key tubesage.ResourceKey) (tubesage.Transcript, error) {
	return g.client.Transcript(ctx, g.video(key))
}

func (g *RemoteGateway) Summarize(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) (string, error) {
	return g.client.Summary(ctx, g.video(key), transcript)
}

func (g *RemoteGateway) Quiz(ctx context.Context, key tubesage.ResourceKey, transcript tubesage.Transcript) ([]tubesage.QuizQuestion, error) {
	questions, err := g.client.Quiz(ctx, g.video(key), transcript)
	if err != nil {
		return nil, err
	}
	if !tubesage.QuizValid(questions) {
		return nil, errMalformedQuiz
	}
	return questions, nil
}

func (g *RemoteGateway) Answer(ctx context.Context, key tubesage.ResourceKey, question string, history []tubesage.Turn) (string, error) {
	return g.client.Chat(ctx, g.video(key), question, history)
}

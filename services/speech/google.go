package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// Audio is mono or multi-channel 16-bit little-endian PCM.
type Audio struct {
	PCM        []byte
	SampleRate int
	Channels   int
	Language   string
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// GoogleTranscriber uses Google Cloud Speech-to-Text synchronous recognition.
type GoogleTranscriber struct {
	client  *gspeech.Client
	timeout time.Duration
}

// NewGoogleTranscriber uses credentialsFile when set, otherwise the
// application default credentials.
func NewGoogleTranscriber(ctx context.Context, credentialsFile string, timeout time.Duration) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &GoogleTranscriber{client: client, timeout: timeout}, nil
}

func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(audio.SampleRate),
			LanguageCode:      audio.Language,
			AudioChannelCount: int32(audio.Channels),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.PCM},
		},
	}

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		transcript.WriteString(result.Alternatives[0].Transcript)
		transcript.WriteString(" ")
	}
	return strings.TrimSpace(transcript.String()), nil
}

func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

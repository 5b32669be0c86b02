package backend

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// VideoJob is the state of one asynchronous video generation
type VideoJob struct {
	Name string
	Done bool
	URI  string
	Err  error // set when the finished operation failed or produced nothing

	op *genai.GenerateVideosOperation
}

// StartVideo submits a video generation for promptText
func (g *Gemini) StartVideo(ctx context.Context, promptText string) (*VideoJob, error) {
	return call(ctx, g, "start_video", func(ctx context.Context) (*VideoJob, error) {
		op, err := g.client.Models.GenerateVideos(ctx, g.cfg.VideoModel, videoPrompt(promptText), nil, &genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "16:9",
		})
		if err != nil {
			return nil, err
		}
		return newVideoJob(op), nil
	})
}

// PollVideo refreshes job. Jobs that are already done are returned as is.
func (g *Gemini) PollVideo(ctx context.Context, job *VideoJob) (*VideoJob, error) {
	if job.Done || job.op == nil {
		return job, nil
	}
	g.metrics.RecordVideoPoll(ctx)
	return call(ctx, g, "poll_video", func(ctx context.Context) (*VideoJob, error) {
		op, err := g.client.Operations.GetVideosOperation(ctx, job.op, nil)
		if err != nil {
			return nil, err
		}
		return newVideoJob(op), nil
	})
}

func newVideoJob(op *genai.GenerateVideosOperation) *VideoJob {
	job := &VideoJob{op: op}
	if op == nil {
		job.Done = true
		job.Err = ErrNoData
		return job
	}
	job.Name = op.Name
	job.Done = op.Done
	if !op.Done {
		return job
	}

	if op.Error != nil {
		msg, _ := op.Error["message"].(string)
		if msg == "" {
			msg = fmt.Sprint(op.Error)
		}
		job.Err = fmt.Errorf("video generation failed: %s", msg)
		return job
	}

	job.URI = videoURI(op)
	if job.URI == "" {
		job.Err = ErrNoData
	}
	return job
}

func videoURI(op *genai.GenerateVideosOperation) string {
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return ""
	}
	v := op.Response.GeneratedVideos[0]
	if v == nil || v.Video == nil {
		return ""
	}
	return v.Video.URI
}

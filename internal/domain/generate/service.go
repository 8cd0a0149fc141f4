package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mengzhisuoliu/easyVoice/internal/core/pool"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/audio"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/cache"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/eventbus"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/llm"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/subtitle"
	domaintext "github.com/mengzhisuoliu/easyVoice/internal/domain/text"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/tts"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/tts/edge"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/config"
	platformerrors "github.com/mengzhisuoliu/easyVoice/internal/platform/errors"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

// Segmenter is the optional LLM pre-annotation collaborator.
type Segmenter interface {
	Annotate(ctx context.Context, text, language string) ([]llm.Segment, error)
}

// Deps are the orchestrator's explicit dependencies. Store and Concat are
// required; the rest default to no-ops so tests can wire only what they need.
type Deps struct {
	Store     cache.Store
	Concat    audio.Concatenator
	Segmenter Segmenter
	Bus       *eventbus.Bus
	Logger    *logging.Logger

	// Dial overrides the protocol dialer; defaults to edge.Dial.
	Dial DialFunc
}

// Service runs the generation state machine for one request at a time per
// call; concurrent calls share only the cache and the output directory.
type Service struct {
	cfg       config.TTSConfig
	store     cache.Store
	segmenter Segmenter
	merge     *MergeEngine
	bus       *eventbus.Bus
	logger    *logging.Logger
	dial      DialFunc
}

func NewService(cfg config.TTSConfig, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewDiscard()
	}
	dial := deps.Dial
	if dial == nil {
		dial = func(ctx context.Context, opts edge.Options) (SynthesisSession, error) {
			return edge.Dial(ctx, opts, logger)
		}
	}
	return &Service{
		cfg:       cfg,
		store:     deps.Store,
		segmenter: deps.Segmenter,
		merge:     NewMergeEngine(deps.Concat),
		bus:       deps.Bus,
		logger:    logger,
		dial:      dial,
	}
}

// Generate produces one narrated artifact for req. The outcome is exactly one
// of: a complete artifact, a partial artifact (Partial=true), or a typed
// error. onProgress may be nil.
func (s *Service) Generate(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	const op = "generate"

	if strings.TrimSpace(req.Text) == "" {
		return nil, platformerrors.New(platformerrors.KindValidation, op, "text is empty")
	}
	if req.TaskID == "" {
		req.TaskID = uuid.NewString()
	}

	prosody := edge.Prosody{Rate: req.Rate, Pitch: req.Pitch, Volume: req.Volume}
	report := func(percent int) {
		if s.bus != nil {
			s.bus.PublishProgress(req.TaskID, percent)
		}
		if onProgress != nil {
			onProgress(req.TaskID, percent)
		}
	}

	// Cache check before anything that costs a remote call. A store failure
	// is downgraded to a miss and only forces recomputation.
	key := cache.Key(req.Text, req.Voice, req.Rate, req.Pitch, req.Volume)
	if entry, found := s.cacheGet(ctx, key); found {
		s.logger.InfoTag("Generate", "cache hit for task %s", req.TaskID)
		report(100)
		return &Result{TaskID: req.TaskID, AudioURL: entry.AudioURL, SubtitleURL: entry.SubtitleURL}, nil
	}

	// Validation is a hard reject with zero remote cost.
	if _, ok := tts.Find(req.Voice); !ok {
		return nil, platformerrors.New(platformerrors.KindValidation, op,
			fmt.Sprintf("unknown voice %q", req.Voice))
	}
	language := domaintext.DetectLanguage(req.Text)
	if !tts.SupportsLanguage(req.Voice, language) {
		return nil, platformerrors.New(platformerrors.KindValidation, op,
			fmt.Sprintf("voice %s does not support detected language %s", req.Voice, language))
	}

	jobs, err := s.planJobs(ctx, req, language, prosody)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindMerge, op, "create output dir", err)
	}
	audioPath := filepath.Join(s.cfg.OutputDir, key+".mp3")
	cuePath := subtitle.FileFor(audioPath)
	result := &Result{
		TaskID:      req.TaskID,
		AudioURL:    "/audio/" + filepath.Base(audioPath),
		SubtitleURL: "/audio/" + filepath.Base(cuePath),
	}

	// Single segment: no batch, no partial state. The segment's failure is
	// the batch's failure.
	if len(jobs) == 1 {
		out, err := s.synthesizeSegment(ctx, jobs[0], audioPath)
		if err != nil {
			return nil, err
		}
		if err := subtitle.WriteFile(cuePath, out.cues); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindMerge, op, "write subtitle artifact", err)
		}
		s.cacheSet(ctx, key, cache.Entry{AudioURL: result.AudioURL, SubtitleURL: result.SubtitleURL})
		s.logArtifact(req.TaskID, audioPath)
		report(100)
		return result, nil
	}

	// Multi segment: bounded concurrent synthesis into a batch-private
	// scratch directory, then an ordered merge of the survivors.
	scratch, err := os.MkdirTemp(s.cfg.OutputDir, "batch-")
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindMerge, op, "create scratch dir", err)
	}
	defer os.RemoveAll(scratch)

	poolJobs := make([]func(context.Context) (segmentOutput, error), len(jobs))
	for i, job := range jobs {
		job := job
		segPath := filepath.Join(scratch, fmt.Sprintf("seg-%04d.mp3", job.index))
		poolJobs[i] = func(ctx context.Context) (segmentOutput, error) {
			return s.synthesizeSegment(ctx, job, segPath)
		}
	}

	outcomes, _ := pool.Run(ctx, s.cfg.Concurrency, poolJobs, func(done, total int) {
		report(done * 100 / total)
	})

	var (
		survivorPaths []string
		survivorCues  [][]subtitle.Cue
		firstErr      error
	)
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			if firstErr == nil {
				firstErr = outcome.Err
			}
			s.logger.WarnTag("Generate", "segment %d failed: %v", i, outcome.Err)
			continue
		}
		survivorPaths = append(survivorPaths, outcome.Value.audioPath)
		survivorCues = append(survivorCues, outcome.Value.cues)
	}

	if len(survivorPaths) == 0 {
		return nil, platformerrors.Wrap(platformerrors.KindOf(firstErr), op,
			"every segment failed", firstErr)
	}
	partial := len(survivorPaths) < len(outcomes)

	if err := s.merge.MergeAudio(ctx, survivorPaths, audioPath); err != nil {
		return nil, err
	}
	if err := subtitle.WriteFile(cuePath, MergeCues(survivorCues)); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindMerge, op, "write subtitle artifact", err)
	}

	// Partial batches are never cached: a later identical request must retry
	// the failed segments instead of being served an incomplete artifact.
	if !partial {
		s.cacheSet(ctx, key, cache.Entry{AudioURL: result.AudioURL, SubtitleURL: result.SubtitleURL})
	}

	result.Partial = partial
	s.logArtifact(req.TaskID, audioPath)
	return result, nil
}

// logArtifact reports the decoded duration of the finished artifact. Decode
// failures only cost the log line.
func (s *Service) logArtifact(taskID, audioPath string) {
	d, err := audio.Duration(audioPath)
	if err != nil {
		s.logger.DebugTag("Generate", "duration probe for task %s failed: %v", taskID, err)
		return
	}
	s.logger.InfoTag("Generate", "task %s produced %s of audio", taskID, d.Round(10*time.Millisecond))
}

// planJobs turns the request into ordered segment jobs, via the LLM when
// requested and configured, otherwise via the plain splitter.
func (s *Service) planJobs(ctx context.Context, req Request, language string, prosody edge.Prosody) ([]segmentJob, error) {
	if req.UseLLM && s.segmenter != nil {
		annotated, err := s.segmenter.Annotate(ctx, req.Text, language)
		if err != nil {
			return nil, err
		}
		var jobs []segmentJob
		for _, seg := range annotated {
			voice := seg.Voice
			if _, ok := tts.Find(voice); !ok {
				voice = req.Voice
			}
			p := prosody
			if seg.Rate != "" {
				p.Rate = seg.Rate
			}
			if seg.Pitch != "" {
				p.Pitch = seg.Pitch
			}
			if seg.Volume != "" {
				p.Volume = seg.Volume
			}
			for _, part := range domaintext.Split(seg.Text, s.cfg.MaxSegmentLength) {
				jobs = append(jobs, segmentJob{index: len(jobs), text: part, voice: voice, prosody: p})
			}
		}
		if len(jobs) == 0 {
			return nil, platformerrors.New(platformerrors.KindValidation, "plan jobs",
				"annotation produced no synthesizable segments")
		}
		return jobs, nil
	}

	parts := domaintext.Split(req.Text, s.cfg.MaxSegmentLength)
	jobs := make([]segmentJob, len(parts))
	for i, part := range parts {
		jobs[i] = segmentJob{index: i, text: part, voice: req.Voice, prosody: prosody}
	}
	return jobs, nil
}

// synthesizeSegment runs one full session for one job and writes its audio to
// audioPath. Cues are reconstructed against the job's exact source text.
func (s *Service) synthesizeSegment(ctx context.Context, job segmentJob, audioPath string) (segmentOutput, error) {
	opts := edge.Options{
		Voice:            job.voice,
		Language:         tts.LocaleOf(job.voice),
		ConnectTimeout:   s.cfg.ConnectTimeout,
		SynthesisTimeout: s.cfg.SynthesisTimeout,
		Proxy:            s.cfg.Proxy,
	}

	session, err := s.dial(ctx, opts)
	if err != nil {
		return segmentOutput{}, err
	}
	defer session.Close()

	res, err := session.Synthesize(ctx, job.text, job.prosody, edge.NewRequestID())
	if err != nil {
		return segmentOutput{}, err
	}

	if err := os.WriteFile(audioPath, res.Audio, 0o644); err != nil {
		return segmentOutput{}, platformerrors.Wrap(platformerrors.KindMerge,
			"synthesize segment", "write segment audio", err)
	}

	boundaries := make([]subtitle.Boundary, len(res.Boundaries))
	for i, b := range res.Boundaries {
		boundaries[i] = subtitle.Boundary{Text: b.Text, OffsetTicks: b.Offset, DurationTicks: b.Duration}
	}

	return segmentOutput{
		audioPath: audioPath,
		cues:      subtitle.Reconstruct(job.text, boundaries),
	}, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) (cache.Entry, bool) {
	entry, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.WarnTag("Generate", "cache read failed, treating as miss: %v", err)
		return cache.Entry{}, false
	}
	return entry, found
}

func (s *Service) cacheSet(ctx context.Context, key string, entry cache.Entry) {
	if err := s.store.Set(ctx, key, entry); err != nil {
		s.logger.WarnTag("Generate", "cache write failed: %v", err)
	}
}

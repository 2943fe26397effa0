package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/knownet/post-service/internal/ai"
	"github.com/knownet/post-service/internal/config"
	"github.com/knownet/post-service/internal/dto"
	"github.com/knownet/post-service/internal/rabbitmq"
	"github.com/knownet/post-service/internal/repository"
	"github.com/knownet/post-service/internal/repository/redisrepo"
	"github.com/knownet/post-service/internal/tags"
	"go.uber.org/zap"
)

// enrichmentService fills tags and summary of freshly created posts. Jobs run
// once: a failure leaves the fields empty and is never retried.
type enrichmentService struct {
	logger   *zap.Logger
	repo     *repository.Repository
	enricher ai.Enricher
	deriver  *tags.Deriver
	mq       *rabbitmq.MQConn
	bg       *background
	cfg      config.ServiceConfig
}

func newEnrichmentService(
	logger *zap.Logger,
	repo *repository.Repository,
	enricher ai.Enricher,
	deriver *tags.Deriver,
	mq *rabbitmq.MQConn,
	bg *background,
	cfg config.ServiceConfig,
) *enrichmentService {
	return &enrichmentService{
		logger:   logger,
		repo:     repo,
		enricher: enricher,
		deriver:  deriver,
		mq:       mq,
		bg:       bg,
		cfg:      cfg,
	}
}

func (s *enrichmentService) schedule(ctx context.Context, msg dto.MQPostEnrichmentMsg) {
	if s.mq != nil {
		err := s.mq.PublishJSON(ctx, rabbitmq.POST_ENRICHMENT_QUEUE, msg)
		if err == nil {
			return
		}
		s.logger.Sugar().Errorf("failed to publish enrichment job for post(%s), running in-process: %s", msg.PostID.String(), err.Error())
	}

	s.bg.Go("enrichment", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Enrichment.JobTimeout)
		defer cancel()

		if err := s.run(ctx, msg); err != nil {
			s.logger.Sugar().Errorf("failed to enrich post(%s): %s", msg.PostID.String(), err.Error())
		}
	})
}

func (s *enrichmentService) run(ctx context.Context, msg dto.MQPostEnrichmentMsg) error {
	in := ai.Input{Content: msg.Content}
	if len(msg.ImageData) > 0 {
		in.Image = &ai.Image{Data: msg.ImageData, MimeType: msg.ImageMimeType}
	}

	postTags := s.deriver.Derive(ctx, in).Tags()

	var summary *string
	text, err := s.enricher.GenerateSummary(ctx, in)
	if err != nil {
		aiFailuresTotal.WithLabelValues("enrichment_summary").Inc()
		s.logger.Sugar().Errorf("failed to generate summary for post(%s): %s", msg.PostID.String(), err.Error())
	} else if text != "" {
		summary = &text
	}

	post, err := s.repo.Post.SetEnrichment(ctx, msg.PostID, postTags, summary)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			enrichmentJobsTotal.WithLabelValues("post_gone").Inc()
			s.logger.Sugar().Infof("post(%s) was deleted before enrichment finished", msg.PostID.String())
			return nil
		}
		enrichmentJobsTotal.WithLabelValues("failed").Inc()
		return err
	}

	enrichmentJobsTotal.WithLabelValues("enriched").Inc()

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostKey(post.ID.String())).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%s) from redis: %s", post.ID.String(), err.Error())
	}
	if err := s.repo.Redis.Default.Del(ctx, redisrepo.UniqueTagsKey()).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete unique tags from redis: %s", err.Error())
	}

	return nil
}

func (s *enrichmentService) consume(ctx context.Context) {
	if s.mq == nil {
		return
	}

	queue := rabbitmq.POST_ENRICHMENT_QUEUE
	msgs, err := s.mq.Consume(queue)
	if err != nil {
		s.logger.Sugar().Errorf("failed to start consume jobs from queue(%s): %s", queue, err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				s.logger.Sugar().Warnf("queue(%s) delivery channel closed", queue)
				return
			}

			var job dto.MQPostEnrichmentMsg
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				s.logger.Sugar().Errorf("failed to unmarshal json in queue(%s): %s", queue, err.Error())
				msg.Nack(false, false)
				continue
			}

			jobCtx, cancel := context.WithTimeout(ctx, s.cfg.Enrichment.JobTimeout)
			err := s.run(jobCtx, job)
			cancel()
			if err != nil {
				s.logger.Sugar().Errorf("failed to enrich post(%s): %s", job.PostID.String(), err.Error())
				msg.Nack(false, false)
				continue
			}

			msg.Ack(false)
		}
	}
}

func newEnrichmentMsg(input dto.CreatePostDto, postID uuid.UUID) dto.MQPostEnrichmentMsg {
	msg := dto.MQPostEnrichmentMsg{
		PostID:    postID,
		Content:   input.Content,
		CreatedAt: time.Now().UTC(),
	}
	if input.Image != nil {
		msg.ImageData = input.Image.Data
		msg.ImageMimeType = input.Image.MimeType
	}

	return msg
}

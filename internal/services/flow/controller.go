// Package flow sequences the user-facing avatar flow: upload, crop, generate
// and discard. Each uploaded asset has its own session; sessions never share
// state.
package flow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/phambaophuc/flag-avatar/internal/services/events"
	"github.com/phambaophuc/flag-avatar/internal/services/geometry"
	"github.com/phambaophuc/flag-avatar/internal/services/pipeline"
	"github.com/phambaophuc/flag-avatar/internal/services/processor"
	"github.com/phambaophuc/flag-avatar/internal/services/session"
	"github.com/phambaophuc/flag-avatar/internal/services/storage"
	"github.com/phambaophuc/flag-avatar/pkg/utils"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("avatar not found")

// defaultCropOffset is where the crop box starts on a fresh crop page.
const defaultCropOffset = 5

// AssetStore is the remote asset store. Download must wrap storage.ErrNotFound
// when the asset does not exist.
type AssetStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (models.Asset, error)
	UploadResult(ctx context.Context, data []byte) (models.Asset, error)
	GetURL(id string) string
	Download(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	MaxFileSize     int64
	DefaultCropSize float64
}

type Controller struct {
	store     AssetStore
	sessions  session.Store
	processor *processor.ImageProcessor
	events    events.Publisher
	logger    *zap.Logger
	options   Options
	now       func() time.Time

	render *pipeline.Pipeline[avatarJob]
	commit *pipeline.Pipeline[avatarJob]
}

// CropView is what the crop page needs to draw itself.
type CropView struct {
	AssetID      string
	ImageURL     string
	SourceWidth  int
	SourceHeight int
	DefaultCrop  models.CropRect
	State        models.SessionState
	ResultURL    string
}

type Result struct {
	AssetID string
	URL     string
	Crop    models.CropRect
	Cached  bool
}

func NewController(
	store AssetStore,
	sessions session.Store,
	proc *processor.ImageProcessor,
	publisher events.Publisher,
	logger *zap.Logger,
	opts Options,
) *Controller {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.DefaultCropSize <= 0 {
		opts.DefaultCropSize = 100
	}

	c := &Controller{
		store:     store,
		sessions:  sessions,
		processor: proc,
		events:    publisher,
		logger:    logger,
		options:   opts,
		now:       time.Now,
	}
	c.render = c.renderPipeline()
	c.commit = c.render.Then("store", c.storeResult)
	return c
}

// Upload validates and stores a new image and opens a session for it.
func (c *Controller) Upload(ctx context.Context, file multipart.File) (*models.Session, error) {
	upload, err := c.processor.ValidateImage(file, c.options.MaxFileSize)
	if err != nil {
		return nil, err
	}

	state, err := session.Next(models.StateEmpty, session.ActionUpload)
	if err != nil {
		return nil, err
	}

	asset, err := c.store.Upload(ctx, upload.Data, upload.ContentType)
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		AssetID:      asset.ID,
		State:        state,
		SourceWidth:  upload.Width,
		SourceHeight: upload.Height,
		ContentType:  upload.ContentType,
		UpdatedAt:    c.now().UTC(),
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	c.publish(ctx, models.EventUploaded, asset.ID, asset.URL)
	c.logger.Info("Image uploaded",
		zap.String("asset_id", asset.ID),
		zap.Int("width", upload.Width),
		zap.Int("height", upload.Height))

	return sess, nil
}

func (c *Controller) OpenCrop(ctx context.Context, id string) (*CropView, error) {
	sess, err := c.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.advance(ctx, sess, session.ActionOpenCrop); err != nil {
		return nil, err
	}

	side := c.options.DefaultCropSize
	return &CropView{
		AssetID:      sess.AssetID,
		ImageURL:     c.store.GetURL(sess.AssetID),
		SourceWidth:  sess.SourceWidth,
		SourceHeight: sess.SourceHeight,
		DefaultCrop:  models.CropRect{X: defaultCropOffset, Y: defaultCropOffset, Width: side, Height: side},
		State:        sess.State,
		ResultURL:    sess.ResultURL,
	}, nil
}

// Commit renders the avatar for the submitted crop and stores it. Committing
// the crop that produced the current result returns that result.
func (c *Controller) Commit(ctx context.Context, id string, input models.CropInput) (*Result, error) {
	sess, err := c.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := session.Next(sess.State, session.ActionCommit)
	if err != nil {
		return nil, err
	}

	crop := c.mapCrop(input, sess.SourceSize())
	if sess.State == models.StateGenerated && sess.ResultURL != "" && sess.Crop != nil && *sess.Crop == crop {
		return &Result{AssetID: sess.ResultID, URL: sess.ResultURL, Crop: crop, Cached: true}, nil
	}

	job := avatarJob{session: sess, input: input}
	if err := c.commit.Run(ctx, &job); err != nil {
		return nil, fmt.Errorf("failed to generate avatar %s: %w", id, err)
	}

	sess.State = next
	sess.Crop = &job.crop
	sess.ResultID = job.result.ID
	sess.ResultURL = job.result.URL
	sess.UpdatedAt = c.now().UTC()
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	c.publish(ctx, models.EventGenerated, sess.AssetID, job.result.URL)
	c.logger.Info("Avatar generated",
		zap.String("asset_id", sess.AssetID),
		zap.String("result_id", job.result.ID))

	return &Result{AssetID: job.result.ID, URL: job.result.URL, Crop: job.crop}, nil
}

// Render produces the avatar PNG without storing it, then releases the
// uploaded original.
func (c *Controller) Render(ctx context.Context, id string, input models.CropInput) ([]byte, error) {
	sess, err := c.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	job := avatarJob{session: sess, input: input}
	if err := c.render.Run(ctx, &job); err != nil {
		return nil, fmt.Errorf("failed to render avatar %s: %w", id, err)
	}

	if err := c.Discard(ctx, id); err != nil {
		c.logger.Warn("Failed to release original after download",
			zap.String("asset_id", id),
			zap.Error(err))
	}

	return job.png.Bytes(), nil
}

// Discard deletes the uploaded original and forgets the session.
func (c *Controller) Discard(ctx context.Context, id string) error {
	if !utils.IsValidAssetID(id) {
		return ErrNotFound
	}

	sess, err := c.sessions.Get(ctx, id)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	state := models.StateEmpty
	if sess != nil {
		state = sess.State
	}
	if _, err := session.Next(state, session.ActionDiscard); err != nil {
		return err
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.sessions.Delete(ctx, id); err != nil {
		return err
	}

	c.publish(ctx, models.EventDiscarded, id, "")
	c.logger.Info("Image discarded", zap.String("asset_id", id))
	return nil
}

func (c *Controller) mapCrop(input models.CropInput, source models.Size) models.CropRect {
	crop := geometry.ToSource(input.Crop, input.Preview, source, c.options.DefaultCropSize)
	return geometry.Clamp(crop, source)
}

func (c *Controller) advance(ctx context.Context, sess *models.Session, action session.Action) error {
	next, err := session.Next(sess.State, action)
	if err != nil {
		return err
	}
	if next == sess.State {
		return nil
	}

	sess.State = next
	sess.UpdatedAt = c.now().UTC()
	return c.sessions.Save(ctx, sess)
}

// loadSession finds the session for id. An asset that outlived its session
// record is adopted back as freshly uploaded.
func (c *Controller) loadSession(ctx context.Context, id string) (*models.Session, error) {
	if !utils.IsValidAssetID(id) {
		return nil, ErrNotFound
	}

	sess, err := c.sessions.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	data, err := c.store.Download(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	img, err := c.processor.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	sess = &models.Session{
		AssetID:      id,
		State:        models.StateUploaded,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
		UpdatedAt:    c.now().UTC(),
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	c.logger.Info("Adopted image without session", zap.String("asset_id", id))
	return sess, nil
}

func (c *Controller) publish(ctx context.Context, eventType, assetID, url string) {
	event := models.AvatarEvent{
		Type:       eventType,
		AssetID:    assetID,
		URL:        url,
		OccurredAt: c.now().UTC(),
	}
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Warn("Failed to publish event",
			zap.String("type", eventType),
			zap.String("asset_id", assetID),
			zap.Error(err))
	}
}

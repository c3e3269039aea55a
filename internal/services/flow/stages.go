package flow

import (
	"bytes"
	"context"
	"errors"
	"image"

	"github.com/phambaophuc/flag-avatar/internal/models"
	"github.com/phambaophuc/flag-avatar/internal/services/pipeline"
	"github.com/phambaophuc/flag-avatar/internal/services/storage"
)

// avatarJob is the state threaded through the avatar stages.
type avatarJob struct {
	session *models.Session
	input   models.CropInput

	source    []byte
	img       image.Image
	crop      models.CropRect
	avatar    *image.NRGBA
	composite *image.NRGBA
	png       *bytes.Buffer
	result    models.Asset
}

func (c *Controller) renderPipeline() *pipeline.Pipeline[avatarJob] {
	return pipeline.New[avatarJob]().
		Then("fetch", c.fetchSource).
		Then("decode", c.decodeSource).
		Then("map", c.mapJobCrop).
		Then("transform", c.transform).
		Then("composite", c.compose).
		Then("encode", c.encode)
}

func (c *Controller) fetchSource(ctx context.Context, job *avatarJob) error {
	data, err := c.store.Download(ctx, job.session.AssetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	job.source = data
	return nil
}

func (c *Controller) decodeSource(ctx context.Context, job *avatarJob) error {
	img, err := c.processor.Decode(bytes.NewReader(job.source))
	if err != nil {
		return err
	}
	job.img = img
	job.source = nil
	return nil
}

// mapJobCrop scales against the decoded image, which is the authority on the
// natural size.
func (c *Controller) mapJobCrop(ctx context.Context, job *avatarJob) error {
	b := job.img.Bounds()
	job.crop = c.mapCrop(job.input, models.Size{Width: float64(b.Dx()), Height: float64(b.Dy())})
	return nil
}

func (c *Controller) transform(ctx context.Context, job *avatarJob) error {
	avatar, err := c.processor.Avatar(job.img, job.crop)
	if err != nil {
		return err
	}
	job.avatar = avatar
	return nil
}

func (c *Controller) compose(ctx context.Context, job *avatarJob) error {
	composite, err := c.processor.Composite(job.avatar)
	if err != nil {
		return err
	}
	job.composite = composite
	return nil
}

func (c *Controller) encode(ctx context.Context, job *avatarJob) error {
	buffer, err := c.processor.EncodePNG(job.composite)
	if err != nil {
		return err
	}
	job.png = buffer
	return nil
}

func (c *Controller) storeResult(ctx context.Context, job *avatarJob) error {
	asset, err := c.store.UploadResult(ctx, job.png.Bytes())
	if err != nil {
		return err
	}
	job.result = asset
	return nil
}

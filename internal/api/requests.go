package api

import (
	"encoding/base64"
	"fmt"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ExportBody is the POST /export request. Omitted fields take their defaults.
type ExportBody struct {
	Format      *string `json:"format" validate:"omitempty,max=32"`
	IncludeData *bool   `json:"includeData"`
	SchemaOnly  *bool   `json:"schemaOnly"`
	DataOnly    *bool   `json:"dataOnly"`
	Compress    *bool   `json:"compress"`
}

// ToRequest applies defaults.
func (b ExportBody) ToRequest() models.ExportRequest {
	req := models.DefaultExportRequest()
	if b.Format != nil {
		req.Format = models.ExportFormat(*b.Format)
	}
	if b.IncludeData != nil {
		req.IncludeData = *b.IncludeData
	}
	if b.SchemaOnly != nil {
		req.SchemaOnly = *b.SchemaOnly
	}
	if b.DataOnly != nil {
		req.DataOnly = *b.DataOnly
	}
	if b.Compress != nil {
		req.Compress = *b.Compress
	}
	return req
}

// ImportBody is the POST /import request. File is the base64-encoded archive.
type ImportBody struct {
	File     string `json:"file" validate:"required,base64"`
	FileName string `json:"fileName" validate:"required,max=255"`
	Format   string `json:"format" validate:"omitempty,max=32"`
	Clean    bool   `json:"clean"`
}

// ToRequest decodes the archive and applies defaults.
func (b ImportBody) ToRequest() (models.ImportRequest, error) {
	content, err := base64.StdEncoding.DecodeString(b.File)
	if err != nil {
		return models.ImportRequest{}, fmt.Errorf("%w: file is not valid base64", models.ErrInvalidRequest)
	}

	format := models.FormatCustom
	if b.Format != "" {
		format = models.ExportFormat(b.Format)
	}

	return models.ImportRequest{
		Content:  content,
		FileName: b.FileName,
		Format:   format,
		Clean:    b.Clean,
	}, nil
}

func validateBody(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidRequest, err.Error())
	}
	return nil
}

package export

import (
	"errors"
	"fmt"

	"parley/internal/domain"
)

var ErrUnsupportedKind = errors.New("export kind is not built locally")

// Builder renders the spreadsheet and word-processing exports in-process.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Build(kind domain.ExportKind, pairs []domain.Pair) (domain.Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch kind {
	case domain.ExportSpreadsheet:
		data, err = Spreadsheet(pairs)
	case domain.ExportDocumentTable:
		data, err = DocumentTable(pairs)
	case domain.ExportDocumentText:
		data, err = DocumentText(pairs)
	default:
		return domain.Artifact{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{
		Filename: kind.Filename(),
		MIMEType: kind.MIMEType(),
		Data:     data,
	}, nil
}

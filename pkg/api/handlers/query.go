package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/openstats/tablebuilder/pkg/observation"
	"github.com/openstats/tablebuilder/pkg/tablebuilder"
)

// BuildTable handles POST /tablebuilder: an ad-hoc observation query answered
// with shaped rows plus full facet metadata.
func (s *Server) BuildTable(c fiber.Ctx) error {
	query, err := s.bindQuery(c)
	if err != nil {
		return err
	}

	result, err := s.tables.Query(c.Context(), *query, tablebuilder.ShapeTableBuilder)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(result)
}

// SubjectMeta handles POST /meta/subject: the facet metadata for a filtered
// subject, without building rows.
func (s *Server) SubjectMeta(c fiber.Ctx) error {
	query, err := s.bindQuery(c)
	if err != nil {
		return err
	}

	meta, err := s.tables.SubjectMeta(c.Context(), *query)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(meta)
}

func (s *Server) bindQuery(c fiber.Ctx) (*observation.Query, error) {
	var query observation.Query

	if err := c.Bind().Body(&query); err != nil {
		s.log.WithError(err).Debug("Failed to decode query body")

		return nil, ErrInvalidRequestBody
	}

	if err := s.validate.Struct(&query); err != nil {
		return nil, mapError(err)
	}

	return &query, nil
}

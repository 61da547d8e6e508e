package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// GetDataBlock handles GET /data-blocks/:id: the cached (or freshly built)
// table for a saved data block query.
func (s *Server) GetDataBlock(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidDataBlockID
	}

	result, err := s.blocks.GetDataBlockTableResult(c.Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(result)
}

// InvalidateDataBlock handles DELETE /data-blocks/:id/cache: drops the
// block's cached table so the next request rebuilds it.
func (s *Server) InvalidateDataBlock(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidDataBlockID
	}

	if err := s.blocks.InvalidateDataBlock(c.Context(), id); err != nil {
		return mapError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

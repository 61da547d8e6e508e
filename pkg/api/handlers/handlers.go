// Package handlers implements the request handlers for the table builder API.
package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/openstats/tablebuilder/pkg/datablock"
	"github.com/openstats/tablebuilder/pkg/tablebuilder"
)

// Server holds the services the handlers dispatch to.
type Server struct {
	tables   tablebuilder.Service
	blocks   datablock.Service
	validate *validator.Validate
	log      logrus.FieldLogger
}

// NewServer creates a new API server instance
func NewServer(tables tablebuilder.Service, blocks datablock.Service, log logrus.FieldLogger) *Server {
	return &Server{
		tables:   tables,
		blocks:   blocks,
		validate: validator.New(),
		log:      log.WithField("component", "api.handlers"),
	}
}

package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sablier-labs/merkle-api/pkg/config"
	"github.com/sablier-labs/merkle-api/pkg/ipfs"
	"github.com/sablier-labs/merkle-api/pkg/persistence"
)

// Server handles the campaign HTTP API.
//
// Request flow:
//
//	POST /api/create?decimals=N&kind=solana|evm
//	  - multipart form field "data" carries the recipients CSV
//	  - validates every row, builds the commitment tree, pins the campaign
//	    document to IPFS and stores it locally
//	  - 200: { status, total, recipients, root, cid }
//	  - 400: { status, errors: [{row, message}] } for CSV validation failures
//
//	GET /api/eligibility?cid=...&address=...
//	  - bearer-token guarded
//	  - resolves the campaign (local store first, IPFS gateway fallback),
//	    matches the address case-insensitively and generates the proof
//	  - 200: { index, proof, address, amount }
//	  - 400: not eligible for this campaign
//
//	GET /api/recipients/{guid}?pageNumber=&pageSize=
//	  - one page of a stored campaign's recipient list
//
//	GET /api/health
//	  - liveness probe
type Server struct {
	cfg        *config.ServerConfig
	store      persistence.ICampaignStore
	ipfs       *ipfs.Client
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.ServerConfig, store persistence.ICampaignStore, ipfsClient *ipfs.Client, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		ipfs:   ipfsClient,
		logger: logger,
	}

	mux := http.NewServeMux()

	// Campaign endpoints
	mux.HandleFunc("/api/create", s.handleCreate)
	mux.HandleFunc("/api/eligibility", s.handleEligibility)
	mux.HandleFunc("/api/recipients/", s.handleRecipients)

	// Liveness endpoint
	mux.HandleFunc("/api/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "port", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

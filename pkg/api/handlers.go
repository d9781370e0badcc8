package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sablier-labs/merkle-api/pkg/campaign"
	"github.com/sablier-labs/merkle-api/pkg/config"
	"github.com/sablier-labs/merkle-api/pkg/merkle"
	"github.com/sablier-labs/merkle-api/pkg/persistence"
	"github.com/sablier-labs/merkle-api/pkg/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// handleCreate handles the /api/create endpoint. It validates the uploaded
// CSV, builds the commitment tree, pins the campaign document to IPFS and
// stores the campaign locally.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	decimals, err := strconv.Atoi(r.URL.Query().Get("decimals"))
	if err != nil || decimals < 0 {
		writeJSON(w, http.StatusBadRequest, types.GeneralErrorResponse{
			Message: "Decimals query parameter is mandatory and should be a valid integer in order to create a valid campaign!",
		})
		return
	}

	kind := config.AddressKindSolana
	if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
		kind, err = config.ParseAddressKind(kindParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, types.GeneralErrorResponse{
				Message: "Kind query parameter must be one of: evm, solana",
			})
			return
		}
	}

	file, _, err := r.FormFile("data")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, types.GeneralErrorResponse{
			Message: "The request form data did not contain recipients csv file",
		})
		return
	}
	defer func() { _ = file.Close() }()

	parsed, err := campaign.ParseCSV(file, decimals, kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem in csv file parsing process: " + err.Error(),
		})
		return
	}

	if len(parsed.ValidationErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, types.ValidationErrorResponse{
			Status: "Invalid csv file.",
			Errors: parsed.ValidationErrors,
		})
		return
	}

	leaves := make([]merkle.Leaf, len(parsed.Records))
	for i, rec := range parsed.Records {
		leaves[i] = merkle.Leaf{Index: uint32(i), Recipient: rec.Address, Amount: rec.Amount}
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		s.logger.Sugar().Errorw("Failed to build merkle tree", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem building the merkle tree",
		})
		return
	}

	snapshot, err := tree.Dump()
	if err != nil {
		s.logger.Sugar().Errorw("Failed to dump merkle tree", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem building the merkle tree",
		})
		return
	}

	recipients := make([]types.RecipientDto, len(parsed.Records))
	for i, rec := range parsed.Records {
		recipients[i] = types.RecipientDto{
			Address: rec.Address,
			Amount:  strconv.FormatUint(rec.Amount, 10),
		}
	}

	doc := &types.CampaignDocument{
		TotalAmount:        parsed.TotalAmount.String(),
		NumberOfRecipients: parsed.NumberOfRecipients,
		MerkleTree:         string(snapshot),
		Root:               tree.Root,
		Recipients:         recipients,
	}

	cid, err := s.ipfs.Upload(r.Context(), doc)
	if err != nil {
		s.logger.Sugar().Errorw("Failed to upload campaign to IPFS", "error", err)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was an error uploading the campaign to ipfs",
		})
		return
	}

	stored := &persistence.StoredCampaign{
		Guid:               uuid.NewString(),
		CreatedAt:          time.Now().Unix(),
		Root:               tree.Root,
		Cid:                cid,
		TotalAmount:        doc.TotalAmount,
		NumberOfRecipients: doc.NumberOfRecipients,
		Decimals:           decimals,
		AddressKind:        kind,
		MerkleTree:         doc.MerkleTree,
		Recipients:         recipients,
	}

	// The pinned document is the source of truth; a store failure must not
	// lose an already published campaign.
	if err := s.store.SaveCampaign(stored); err != nil {
		s.logger.Sugar().Warnw("Failed to store campaign locally", "guid", stored.Guid, "cid", cid, "error", err)
	}

	s.logger.Sugar().Infow("Campaign created",
		"guid", stored.Guid, "cid", cid, "root", tree.Root, "recipients", doc.NumberOfRecipients)

	writeJSON(w, http.StatusOK, types.UploadSuccessResponse{
		Status:     "Upload successful",
		Total:      doc.TotalAmount,
		Recipients: strconv.Itoa(doc.NumberOfRecipients),
		Root:       tree.Root,
		Cid:        cid,
	})
}

// handleEligibility handles the /api/eligibility endpoint. It resolves the
// campaign document and returns the inclusion proof for an eligible address.
func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.isAuthorized(r) {
		writeJSON(w, http.StatusUnauthorized, types.GeneralErrorResponse{
			Message: "Bad authentication process provided.",
		})
		return
	}

	cid := r.URL.Query().Get("cid")
	address := r.URL.Query().Get("address")

	treeText, recipients, err := s.resolveCampaign(r, cid)
	if err != nil {
		s.logger.Sugar().Warnw("Failed to resolve campaign", "cid", cid, "error", err)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem processing your request: Bad CID provided",
		})
		return
	}

	recipientIndex := -1
	for i, rec := range recipients {
		if strings.EqualFold(rec.Address, address) {
			recipientIndex = i
			break
		}
	}

	if recipientIndex < 0 {
		writeJSON(w, http.StatusBadRequest, types.GeneralErrorResponse{
			Message: "The provided address is not eligible for this campaign",
		})
		return
	}

	tree, err := merkle.LoadTree([]byte(treeText))
	if err != nil {
		s.logger.Sugar().Errorw("Failed to load merkle tree snapshot", "cid", cid, "error", err)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem processing your request: corrupt campaign document",
		})
		return
	}

	proof, ok := tree.Proof(uint32(recipientIndex))
	if !ok {
		s.logger.Sugar().Errorw("Recipient index out of tree range", "cid", cid, "index", recipientIndex)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem processing your request: corrupt campaign document",
		})
		return
	}

	writeJSON(w, http.StatusOK, types.EligibilityResponse{
		Index:   recipientIndex,
		Proof:   proof,
		Address: recipients[recipientIndex].Address,
		Amount:  recipients[recipientIndex].Amount,
	})
}

// handleRecipients handles the /api/recipients/{guid} endpoint
func (s *Server) handleRecipients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	guid := strings.TrimPrefix(r.URL.Path, "/api/recipients/")
	if guid == "" || strings.Contains(guid, "/") {
		writeJSON(w, http.StatusBadRequest, types.GeneralErrorResponse{
			Message: "A campaign guid must be provided",
		})
		return
	}

	pageNumber := queryInt(r, "pageNumber", 1)
	pageSize := queryInt(r, "pageSize", defaultPageSize)
	if pageNumber < 1 || pageSize < 1 || pageSize > maxPageSize {
		writeJSON(w, http.StatusBadRequest, types.GeneralErrorResponse{
			Message: "Invalid pagination parameters",
		})
		return
	}

	page, err := s.store.GetRecipientsPage(guid, pageNumber, pageSize)
	if err != nil {
		s.logger.Sugar().Errorw("Failed to read recipients page", "guid", guid, "error", err)
		writeJSON(w, http.StatusInternalServerError, types.GeneralErrorResponse{
			Message: "There was a problem reading the campaign recipients",
		})
		return
	}
	if page == nil {
		writeJSON(w, http.StatusNotFound, types.GeneralErrorResponse{
			Message: "The campaign with the provided guid does not exist",
		})
		return
	}

	writeJSON(w, http.StatusOK, types.RecipientsSuccessResponse{
		Status: "Request successful",
		Page: types.RecipientPageDto{
			PageNumber: pageNumber,
			PageSize:   pageSize,
			Recipients: page,
		},
	})
}

// handleHealth handles the /api/health liveness endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.HealthCheck(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, types.GeneralErrorResponse{
			Message: "Campaign store is unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok"})
}

// isAuthorized checks the bearer token guard on the eligibility endpoint
func (s *Server) isAuthorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+s.cfg.BearerToken
}

// resolveCampaign fetches the tree snapshot and recipient list for a cid,
// preferring the local store and falling back to the IPFS gateway.
func (s *Server) resolveCampaign(r *http.Request, cid string) (string, []types.RecipientDto, error) {
	stored, err := s.store.FindCampaignByCid(cid)
	if err != nil {
		s.logger.Sugar().Warnw("Campaign store lookup failed, falling back to IPFS", "cid", cid, "error", err)
	}
	if stored != nil {
		return stored.MerkleTree, stored.Recipients, nil
	}

	doc, err := s.ipfs.Download(r.Context(), cid)
	if err != nil {
		return "", nil, err
	}

	return doc.MerkleTree, doc.Recipients, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"lottery/instruction"
	"lottery/models"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/mr-tron/base58"
	log "github.com/sirupsen/logrus"
)

// InstructionRequest is the JSON form of one program instruction
type InstructionRequest struct {
	ProgramID solana.PublicKey     `json:"program_id"`
	Accounts  []models.AccountMeta `json:"accounts"`
	Data      string               `json:"data"` // base58
}

// Instruction converts the request into a solana instruction
func (r *InstructionRequest) Instruction() (*solana.GenericInstruction, error) {
	var data []byte
	if r.Data != "" {
		decoded, err := base58.Decode(r.Data)
		if err != nil {
			return nil, fmt.Errorf("data is not base58: %w", err)
		}
		data = decoded
	}
	metas := make(solana.AccountMetaSlice, 0, len(r.Accounts))
	for _, a := range r.Accounts {
		metas = append(metas, solana.NewAccountMeta(a.PublicKey, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(r.ProgramID, metas, data), nil
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// SettlementResponse pairs an audit row with the transfers it made
type SettlementResponse struct {
	Settlement *models.Settlement `json:"settlement"`
	Transfers  []*models.Transfer `json:"transfers"`
}

func (s *Server) handleProcessInstruction(w http.ResponseWriter, r *http.Request) {
	var req InstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	ix, err := req.Instruction()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := s.processor.Process(r.Context(), ix)
	if err != nil {
		writeKindError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	result, err := s.settlements.GetResult(r.Context(), address)
	if err != nil {
		writeKindError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}

	settlement, transfers, err := s.settlements.GetSettlement(r.Context(), address)
	if err != nil {
		writeKindError(w, err)
		return
	}

	if transfers == nil {
		transfers = []*models.Transfer{}
	}
	writeJSON(w, http.StatusOK, SettlementResponse{Settlement: settlement, Transfers: transfers})
}

func (s *Server) handleGetLotterySettlements(w http.ResponseWriter, r *http.Request) {
	lotteryID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid lottery id")
		return
	}

	settlements, err := s.settlements.GetByLotteryID(r.Context(), uint32(lotteryID))
	if err != nil {
		writeKindError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, settlements)
}

func addressParam(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	address, err := solana.PublicKeyFromBase58(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid address")
		return solana.PublicKey{}, false
	}
	return address, true
}

// StatusForKind maps an error kind to the HTTP status it is reported with
func StatusForKind(kind string) int {
	switch kind {
	case "invalid_instruction", "incorrect_program_id", "not_enough_accounts",
		"malformed_roster", "index_out_of_range", "invalid_amount", "read_only_account":
		return http.StatusBadRequest
	case "unauthorized":
		return http.StatusForbidden
	case "account_not_found", "not_settled":
		return http.StatusNotFound
	case "already_settled":
		return http.StatusConflict
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeKindError(w http.ResponseWriter, err error) {
	kind := instruction.ErrorKind(err)
	status := StatusForKind(kind)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		writeError(w, status, kind, "Internal error")
		return
	}
	writeError(w, status, kind, err.Error())
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

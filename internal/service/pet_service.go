package service

import (
	"context"
	"encoding/json"
	"time"

	"pawhome/internal/model"
	"pawhome/internal/notify"
	"pawhome/internal/repository"
	"pawhome/pkg/apperr"
	"pawhome/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// --- DTOs ---

type CreatePetRequest struct {
	Name        string   `json:"name" binding:"required"`
	Species     string   `json:"species" binding:"required"`
	Breed       string   `json:"breed"`
	Age         string   `json:"age"`
	Gender      string   `json:"gender"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	AdoptionFee string   `json:"adoption_fee"`
}

type UpdatePetRequest struct {
	Name        *string   `json:"name"`
	Breed       *string   `json:"breed"`
	Age         *string   `json:"age"`
	Gender      *string   `json:"gender"`
	Description *string   `json:"description"`
	Photos      *[]string `json:"photos"`
	AdoptionFee *string   `json:"adoption_fee"`
}

type AdoptionRequestDTO struct {
	PetID   string `json:"pet_id" binding:"required"`
	Message string `json:"message"`
}

// PetService owns adoption listings and the adoption request workflow.
type PetService interface {
	CreatePet(ctx context.Context, caller Caller, req CreatePetRequest) (*model.Pet, error)
	GetPet(ctx context.Context, id string) (*model.Pet, error)
	ListPets(ctx context.Context, status string, page, limit int) ([]model.Pet, int64, error)
	ListMyPets(ctx context.Context, caller Caller, page, limit int) ([]model.Pet, int64, error)
	UpdatePet(ctx context.Context, caller Caller, id string, req UpdatePetRequest) (*model.Pet, error)
	DeletePet(ctx context.Context, caller Caller, id string) error

	RequestAdoption(ctx context.Context, caller Caller, req AdoptionRequestDTO) (*model.AdoptionRequest, error)
	ListAdoptionRequests(ctx context.Context, caller Caller, petID string) ([]model.AdoptionRequest, error)
	ListMyAdoptionRequests(ctx context.Context, caller Caller, page, limit int) ([]model.AdoptionRequest, int64, error)
	DecideAdoption(ctx context.Context, caller Caller, requestID string, approve bool) (*model.AdoptionRequest, error)
}

type petService struct {
	pets      repository.PetRepository
	adoptions repository.AdoptionRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	hub       Broadcaster
	notifier  *notify.Notifier
	log       *logger.Logger
}

func NewPetService(
	pets repository.PetRepository,
	adoptions repository.AdoptionRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	hub Broadcaster,
	notifier *notify.Notifier,
	log *logger.Logger,
) PetService {
	return &petService{
		pets:      pets,
		adoptions: adoptions,
		audit:     audit,
		txManager: txManager,
		hub:       hub,
		notifier:  notifier,
		log:       log,
	}
}

func (s *petService) CreatePet(ctx context.Context, caller Caller, req CreatePetRequest) (*model.Pet, error) {
	ownerID, err := uuid.Parse(caller.ID)
	if err != nil {
		return nil, apperr.Forbiddenf("authentication required to list a pet")
	}

	fee := decimal.Zero
	if req.AdoptionFee != "" {
		fee, err = decimal.NewFromString(req.AdoptionFee)
		if err != nil || fee.IsNegative() {
			return nil, apperr.Validationf("invalid adoption fee %q", req.AdoptionFee)
		}
	}

	pet := &model.Pet{
		Name:           req.Name,
		Species:        req.Species,
		Breed:          req.Breed,
		Age:            req.Age,
		Gender:         req.Gender,
		Description:    req.Description,
		Photos:         datatypes.NewJSONSlice(req.Photos),
		AdoptionFee:    fee,
		OwnerID:        ownerID,
		AdoptionStatus: model.PetAvailable,
	}

	if err := s.pets.Create(ctx, pet); err != nil {
		return nil, apperr.FromDB("create pet", err)
	}

	s.hub.Emit(EventPetCreated, pet)
	return pet, nil
}

func (s *petService) GetPet(ctx context.Context, id string) (*model.Pet, error) {
	pet, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load pet", err)
	}
	return pet, nil
}

func (s *petService) ListPets(ctx context.Context, status string, page, limit int) ([]model.Pet, int64, error) {
	if status != "" {
		switch status {
		case model.PetAvailable, model.PetPendingAdoption, model.PetAdopted:
		default:
			return nil, 0, apperr.Validationf("invalid adoption status %q", status)
		}
	}
	pets, total, err := s.pets.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list pets", err)
	}
	return pets, total, nil
}

func (s *petService) ListMyPets(ctx context.Context, caller Caller, page, limit int) ([]model.Pet, int64, error) {
	pets, total, err := s.pets.ListByOwner(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list own pets", err)
	}
	return pets, total, nil
}

func (s *petService) canManagePet(caller Caller, pet *model.Pet) bool {
	return caller.IsAdmin() || caller.ID == pet.OwnerID.String()
}

func (s *petService) UpdatePet(ctx context.Context, caller Caller, id string, req UpdatePetRequest) (*model.Pet, error) {
	pet, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB("load pet", err)
	}
	if !s.canManagePet(caller, pet) {
		return nil, apperr.Forbiddenf("only the listing owner or an admin may update a pet")
	}
	if pet.AdoptionStatus == model.PetAdopted {
		return nil, apperr.InvalidStatef("adopted listings can no longer be edited")
	}

	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Breed != nil {
		pet.Breed = *req.Breed
	}
	if req.Age != nil {
		pet.Age = *req.Age
	}
	if req.Gender != nil {
		pet.Gender = *req.Gender
	}
	if req.Description != nil {
		pet.Description = *req.Description
	}
	if req.Photos != nil {
		pet.Photos = datatypes.NewJSONSlice(*req.Photos)
	}
	if req.AdoptionFee != nil {
		fee, err := decimal.NewFromString(*req.AdoptionFee)
		if err != nil || fee.IsNegative() {
			return nil, apperr.Validationf("invalid adoption fee %q", *req.AdoptionFee)
		}
		pet.AdoptionFee = fee
	}

	if err := s.pets.Update(ctx, pet); err != nil {
		return nil, apperr.FromDB("update pet", err)
	}

	s.hub.Emit(EventPetUpdated, pet)
	return pet, nil
}

func (s *petService) DeletePet(ctx context.Context, caller Caller, id string) error {
	pet, err := s.pets.GetByID(ctx, id)
	if err != nil {
		return apperr.FromDB("load pet", err)
	}
	if !s.canManagePet(caller, pet) {
		return apperr.Forbiddenf("only the listing owner or an admin may delete a pet")
	}

	if err := s.pets.Delete(ctx, id); err != nil {
		return apperr.FromDB("delete pet", err)
	}

	s.hub.Emit(EventPetDeleted, map[string]interface{}{"id": pet.ID})
	return nil
}

func (s *petService) RequestAdoption(ctx context.Context, caller Caller, req AdoptionRequestDTO) (*model.AdoptionRequest, error) {
	requesterID, err := uuid.Parse(caller.ID)
	if err != nil {
		return nil, apperr.Forbiddenf("authentication required to request an adoption")
	}

	pet, err := s.pets.GetByID(ctx, req.PetID)
	if err != nil {
		return nil, apperr.FromDB("load pet", err)
	}
	if pet.AdoptionStatus != model.PetAvailable {
		return nil, apperr.InvalidStatef("pet is not available for adoption")
	}
	if pet.OwnerID == requesterID {
		return nil, apperr.Validationf("cannot request adoption of your own pet")
	}

	adoption := &model.AdoptionRequest{
		PetID:       pet.ID,
		RequesterID: requesterID,
		Message:     req.Message,
		Status:      model.AdoptionPending,
	}
	if err := s.adoptions.Create(ctx, adoption); err != nil {
		return nil, apperr.FromDB("create adoption request", err)
	}

	s.hub.Emit(EventAdoptionRequested, adoption)
	return adoption, nil
}

func (s *petService) ListAdoptionRequests(ctx context.Context, caller Caller, petID string) ([]model.AdoptionRequest, error) {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return nil, apperr.FromDB("load pet", err)
	}
	if !s.canManagePet(caller, pet) {
		return nil, apperr.Forbiddenf("only the listing owner or an admin may view its adoption requests")
	}

	reqs, err := s.adoptions.ListByPet(ctx, petID)
	if err != nil {
		return nil, apperr.FromDB("list adoption requests", err)
	}
	return reqs, nil
}

func (s *petService) ListMyAdoptionRequests(ctx context.Context, caller Caller, page, limit int) ([]model.AdoptionRequest, int64, error) {
	reqs, total, err := s.adoptions.ListByRequester(ctx, caller.ID, page, limit)
	if err != nil {
		return nil, 0, apperr.FromDB("list own adoption requests", err)
	}
	return reqs, total, nil
}

// DecideAdoption approves or rejects a pending request. Approval marks the
// pet adopted and auto-rejects the competing pending requests; everything
// commits in one transaction.
func (s *petService) DecideAdoption(ctx context.Context, caller Caller, requestID string, approve bool) (*model.AdoptionRequest, error) {
	deciderID, err := uuid.Parse(caller.ID)
	if err != nil {
		return nil, apperr.Forbiddenf("authentication required")
	}

	var adoption *model.AdoptionRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		adoption, err = s.adoptions.GetByID(txCtx, requestID)
		if err != nil {
			return apperr.FromDB("load adoption request", err)
		}
		if adoption.Status != model.AdoptionPending {
			return apperr.InvalidStatef("adoption request is already %s", adoption.Status)
		}

		pet, err := s.pets.GetByID(txCtx, adoption.PetID.String())
		if err != nil {
			return apperr.FromDB("load pet", err)
		}
		if !s.canManagePet(caller, pet) {
			return apperr.Forbiddenf("only the listing owner or an admin may decide adoption requests")
		}

		now := time.Now()
		adoption.DecidedBy = &deciderID
		adoption.DecidedAt = &now

		action := model.ActionRejectAdoption
		if approve {
			adoption.Status = model.AdoptionApproved
			action = model.ActionApproveAdoption

			pet.AdoptionStatus = model.PetAdopted
			if err := s.pets.Update(txCtx, pet); err != nil {
				return apperr.FromDB("update pet", err)
			}
			if err := s.adoptions.RejectOthers(txCtx, pet.ID.String(), adoption.ID.String()); err != nil {
				return apperr.FromDB("reject competing requests", err)
			}
		} else {
			adoption.Status = model.AdoptionRejected
		}

		if err := s.adoptions.Update(txCtx, adoption); err != nil {
			return apperr.FromDB("update adoption request", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"pet_id":       pet.ID.String(),
			"requester_id": adoption.RequesterID.String(),
		})
		entry := &model.AuditLog{
			UserID:     &deciderID,
			Action:     action,
			EntityID:   adoption.ID.String(),
			EntityName: pet.Name,
			Details:    string(details),
		}
		if err := s.audit.Log(txCtx, entry); err != nil {
			return apperr.FromDB("write audit log", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hub.Emit(EventAdoptionDecided, adoption)

	tmpl := notify.TmplAdoptionRejected
	if approve {
		tmpl = notify.TmplAdoptionApproved
	}
	petName := ""
	if adoption.Pet != nil {
		petName = adoption.Pet.Name
	}
	requesterEmail := ""
	if adoption.Requester != nil {
		requesterEmail = adoption.Requester.Email
	}
	s.notifier.SendAsync(tmpl, requesterEmail, map[string]interface{}{"PetName": petName})

	return adoption, nil
}

package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/repository"
	"github.com/meditracker/patientflow-api/pkg/logger"
)

const (
	cacheKeyAll        = "doctors:all"
	cacheKeyDeptPrefix = "doctors:dept:"
)

// Service manages the doctor roster. Doctors are reference data read on
// every visit start, so list reads go through a short-lived in-process cache
// that is flushed on any mutation.
type Service struct {
	doctors    repository.DoctorRepository
	cache      *cache.Cache
	defaultFee decimal.Decimal
	logger     *logger.Logger
}

func NewService(doctors repository.DoctorRepository, defaultFee decimal.Decimal, log *logger.Logger) *Service {
	return &Service{
		doctors:    doctors,
		cache:      cache.New(5*time.Minute, 10*time.Minute),
		defaultFee: defaultFee,
		logger:     log,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	fee := s.defaultFee
	if req.ConsultationFee != nil {
		fee = *req.ConsultationFee
	}

	doctor := &model.Doctor{
		Base:            model.Base{ID: uuid.New()},
		FullName:        req.FullName,
		Department:      req.Department,
		RoomNumber:      req.RoomNumber,
		Floor:           req.Floor,
		ConsultationFee: fee,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor.FullName = req.FullName
	doctor.Department = req.Department
	doctor.RoomNumber = req.RoomNumber
	doctor.Floor = req.Floor
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return doctor, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.doctors.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Flush()
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	if cached, ok := s.cache.Get(cacheKeyAll); ok {
		return cached.([]*model.Doctor), nil
	}
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKeyAll, doctors, cache.DefaultExpiration)
	return doctors, nil
}

func (s *Service) ListByDepartment(ctx context.Context, department model.Department) ([]*model.Doctor, error) {
	key := cacheKeyDeptPrefix + string(department)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.Doctor), nil
	}
	doctors, err := s.doctors.ListByDepartment(ctx, department)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, doctors, cache.DefaultExpiration)
	return doctors, nil
}

// SeedDefault inserts a starter doctor when the roster is empty, so a fresh
// deployment can start visits immediately.
func (s *Service) SeedDefault(ctx context.Context) error {
	count, err := s.doctors.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	doctor := &model.Doctor{
		Base:            model.Base{ID: uuid.New()},
		FullName:        "Alice Heart",
		Department:      model.DepartmentCardiology,
		Floor:           "2",
		RoomNumber:      "205",
		ConsultationFee: decimal.NewFromInt(300),
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("seeded default doctor", "doctor", doctor.FullName)
	}
	return nil
}

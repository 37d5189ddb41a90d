//go:build integration

package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/felicity-events/felicity-api/internal/db"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
)

type PostgresSuite struct {
	suite.Suite

	pool     *dockertest.Pool
	resource *dockertest.Resource
	db       *gorm.DB
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	pool, err := dockertest.NewPool("")
	s.Require().NoError(err)
	s.Require().NoError(pool.Client.Ping())
	s.pool = pool

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=felicity",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=felicity",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	s.Require().NoError(err)
	s.resource = resource
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://felicity:secret@%s/felicity?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = time.Minute
	s.Require().NoError(pool.Retry(func() error {
		conn, err := db.OpenPostgresWithURL(dsn)
		if err != nil {
			return err
		}
		s.db = conn
		return nil
	}))
}

func (s *PostgresSuite) TearDownSuite() {
	if s.resource != nil {
		_ = s.pool.Purge(s.resource)
	}
}

func (s *PostgresSuite) newEvent(limit int, stock int) (dao.Event, dao.MerchandiseItem) {
	now := time.Now().UTC()
	event := dao.Event{
		OrganizerID:          1,
		Name:                 "Hoodie drop",
		Type:                 "merchandise",
		Eligibility:          "all",
		StartDate:            now.Add(48 * time.Hour),
		EndDate:              now.Add(72 * time.Hour),
		RegistrationDeadline: now.Add(24 * time.Hour),
		RegistrationLimit:    limit,
		Status:               "published",
		PurchaseLimit:        5,
	}
	s.Require().NoError(s.db.Create(&event).Error)

	item := dao.MerchandiseItem{EventID: event.ID, VariantName: "M", Stock: stock, Price: 100}
	s.Require().NoError(s.db.Create(&item).Error)

	return event, item
}

func (s *PostgresSuite) TestConcurrentRegistrationsRespectLimit() {
	event, _ := s.newEvent(3, 0)
	regs := dao.NewRegistrationDAO(s.db)

	const participants = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)
	for i := 0; i < participants; i++ {
		wg.Add(1)
		go func(participantID uint) {
			defer wg.Done()
			_, err := regs.InsertWithReservation(context.Background(), dao.Registration{
				TicketID:      fmt.Sprintf("FEL-LIMIT-%d", participantID),
				ParticipantID: participantID,
				EventID:       event.ID,
				Type:          "normal",
				Status:        "active",
				PaymentStatus: "not_required",
			}, dao.Reservation{ReserveSlot: true})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, dao.ErrEventFull):
				full++
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}(uint(1000 + i))
	}
	wg.Wait()

	s.Equal(3, accepted)
	s.Equal(participants-3, full)

	var stored dao.Event
	s.Require().NoError(s.db.First(&stored, event.ID).Error)
	s.Equal(3, stored.RegistrationCount)
}

func (s *PostgresSuite) TestStockFailureRollsBackSlot() {
	event, item := s.newEvent(10, 1)
	regs := dao.NewRegistrationDAO(s.db)

	_, err := regs.InsertWithReservation(context.Background(), dao.Registration{
		TicketID:      "FEL-STOCK-1",
		ParticipantID: 2001,
		EventID:       event.ID,
		Type:          "merchandise",
		Status:        "active",
		PaymentStatus: "not_required",
	}, dao.Reservation{
		ReserveSlot: true,
		Revenue:     200,
		Stock:       []dao.StockDelta{{ItemID: item.ID, Quantity: 2}},
	})
	s.ErrorIs(err, dao.ErrInsufficientStock)

	var stored dao.Event
	s.Require().NoError(s.db.First(&stored, event.ID).Error)
	s.Zero(stored.RegistrationCount)
	s.Zero(stored.Revenue)

	var count int64
	s.Require().NoError(s.db.Model(&dao.Registration{}).Where("event_id = ?", event.ID).Count(&count).Error)
	s.Zero(count)
}

func (s *PostgresSuite) TestDuplicateLiveRegistration() {
	event, _ := s.newEvent(10, 0)
	regs := dao.NewRegistrationDAO(s.db)

	reg := dao.Registration{
		TicketID:      "FEL-DUP-1",
		ParticipantID: 3001,
		EventID:       event.ID,
		Type:          "normal",
		Status:        "active",
		PaymentStatus: "not_required",
	}
	_, err := regs.InsertWithReservation(context.Background(), reg, dao.Reservation{ReserveSlot: true})
	s.Require().NoError(err)

	reg.TicketID = "FEL-DUP-2"
	_, err = regs.InsertWithReservation(context.Background(), reg, dao.Reservation{ReserveSlot: true})
	s.ErrorIs(err, dao.ErrDuplicateRegistration)
}

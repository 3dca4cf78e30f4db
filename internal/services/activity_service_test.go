package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskflowhq/board-api/internal/constants"
	"github.com/taskflowhq/board-api/internal/models"
	"github.com/taskflowhq/board-api/internal/repository"
)

// ActivityServiceTestSuite defines the test suite for ActivityService
type ActivityServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ActivityService
}

func (suite *ActivityServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Task{},
		&models.Activity{},
	)
	suite.Require().NoError(err)

	suite.service = NewActivityService(
		repository.NewActivityRepository(suite.db),
		repository.NewOrganizationRepository(suite.db),
	)
}

func (suite *ActivityServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ActivityServiceTestSuite) seedFeed(orgID, userID uint64, n int) {
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		activity := &models.Activity{
			Action:         models.ActivityActionUpdate,
			UserID:         userID,
			TaskID:         1,
			OrganizationID: orgID,
			Details:        models.ActivityDetails{Title: fmt.Sprintf("Task %d", i)},
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		suite.db.Create(activity)
	}
}

func (suite *ActivityServiceTestSuite) TestList_NewestFirst() {
	user := &models.User{Username: "alice", Email: "alice@example.com"}
	suite.db.Create(user)
	org := &models.Organization{Name: "Test Org", OwnerID: user.ID}
	suite.db.Create(org)
	suite.db.Create(&models.OrganizationMember{OrganizationID: org.ID, UserID: user.ID, JoinedAt: time.Now()})

	suite.seedFeed(org.ID, user.ID, 5)

	activities, err := suite.service.List(org.ID, user.ID, 10)
	suite.Require().NoError(err)
	suite.Require().Len(activities, 5)

	assert.Equal(suite.T(), "Task 4", activities[0].Details.Title)
	assert.Equal(suite.T(), "Task 0", activities[4].Details.Title)
	for i := 1; i < len(activities); i++ {
		assert.False(suite.T(), activities[i].CreatedAt.After(activities[i-1].CreatedAt))
	}
}

func (suite *ActivityServiceTestSuite) TestList_LimitClamped() {
	user := &models.User{Username: "alice", Email: "alice@example.com"}
	suite.db.Create(user)
	org := &models.Organization{Name: "Test Org", OwnerID: user.ID}
	suite.db.Create(org)
	suite.db.Create(&models.OrganizationMember{OrganizationID: org.ID, UserID: user.ID, JoinedAt: time.Now()})

	suite.seedFeed(org.ID, user.ID, constants.ActivityFeedLimit+5)

	activities, err := suite.service.List(org.ID, user.ID, 1000)
	suite.Require().NoError(err)
	assert.Len(suite.T(), activities, constants.ActivityFeedLimit)

	activities, err = suite.service.List(org.ID, user.ID, 0)
	suite.Require().NoError(err)
	assert.Len(suite.T(), activities, constants.ActivityFeedLimit)

	activities, err = suite.service.List(org.ID, user.ID, 3)
	suite.Require().NoError(err)
	assert.Len(suite.T(), activities, 3)
}

func (suite *ActivityServiceTestSuite) TestList_ScopedToOrganization() {
	user := &models.User{Username: "alice", Email: "alice@example.com"}
	suite.db.Create(user)
	orgA := &models.Organization{Name: "Org A", OwnerID: user.ID}
	suite.db.Create(orgA)
	orgB := &models.Organization{Name: "Org B", OwnerID: user.ID}
	suite.db.Create(orgB)
	suite.db.Create(&models.OrganizationMember{OrganizationID: orgA.ID, UserID: user.ID, JoinedAt: time.Now()})

	suite.seedFeed(orgA.ID, user.ID, 2)
	suite.seedFeed(orgB.ID, user.ID, 3)

	activities, err := suite.service.List(orgA.ID, user.ID, 10)
	suite.Require().NoError(err)
	assert.Len(suite.T(), activities, 2)
}

func (suite *ActivityServiceTestSuite) TestList_NotMember() {
	user := &models.User{Username: "alice", Email: "alice@example.com"}
	suite.db.Create(user)
	org := &models.Organization{Name: "Test Org", OwnerID: user.ID}
	suite.db.Create(org)

	_, err := suite.service.List(org.ID, user.ID, 10)
	assert.ErrorIs(suite.T(), err, ErrNotOrganizationMember)
}

func TestActivityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ActivityServiceTestSuite))
}

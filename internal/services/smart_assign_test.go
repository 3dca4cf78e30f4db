package services

import (
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskflowhq/board-api/internal/broadcast"
	"github.com/taskflowhq/board-api/internal/models"
)

// createAssignedTask creates a task already assigned to a member, in the given status
func (suite *TaskServiceTestSuite) createAssignedTask(title string, orgID, creatorID, assigneeID uint64, status models.TaskStatus) *models.Task {
	task := &models.Task{
		Title:          title,
		Status:         status,
		Priority:       models.TaskPriorityMedium,
		AssignedUserID: &assigneeID,
		OrganizationID: orgID,
		CreatorID:      creatorID,
	}
	suite.db.Create(task)
	return task
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_PicksLeastLoadedMember() {
	alice := suite.createTestUser("alice")
	bob := suite.createTestUser("bob")
	carol := suite.createTestUser("carol")
	org := suite.createTestOrganization("Test Org", alice.ID)
	base := time.Now().Add(-time.Hour)
	suite.addMember(org.ID, alice.ID, base)
	suite.addMember(org.ID, bob.ID, base.Add(time.Minute))
	suite.addMember(org.ID, carol.ID, base.Add(2*time.Minute))

	// alice carries 2 active tasks, carol 1, bob none
	suite.createAssignedTask("Alice 1", org.ID, alice.ID, alice.ID, models.TaskStatusTodo)
	suite.createAssignedTask("Alice 2", org.ID, alice.ID, alice.ID, models.TaskStatusInProgress)
	suite.createAssignedTask("Carol 1", org.ID, alice.ID, carol.ID, models.TaskStatusTodo)
	suite.createTestTask("Unclaimed", org.ID, alice.ID)

	task, assignee, err := suite.service.AssignLeastLoaded(org.ID, alice.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), "Unclaimed", task.Title)
	suite.Require().NotNil(task.AssignedUserID)
	assert.Equal(suite.T(), bob.ID, *task.AssignedUserID)
	assert.Equal(suite.T(), "bob", assignee.Username)
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_DoneTasksDoNotCount() {
	alice := suite.createTestUser("alice")
	bob := suite.createTestUser("bob")
	org := suite.createTestOrganization("Test Org", alice.ID)
	base := time.Now().Add(-time.Hour)
	suite.addMember(org.ID, alice.ID, base)
	suite.addMember(org.ID, bob.ID, base.Add(time.Minute))

	// bob's pile is all finished, alice has one active task
	suite.createAssignedTask("Bob done 1", org.ID, alice.ID, bob.ID, models.TaskStatusDone)
	suite.createAssignedTask("Bob done 2", org.ID, alice.ID, bob.ID, models.TaskStatusDone)
	suite.createAssignedTask("Alice active", org.ID, alice.ID, alice.ID, models.TaskStatusTodo)
	suite.createTestTask("Unclaimed", org.ID, alice.ID)

	task, _, err := suite.service.AssignLeastLoaded(org.ID, alice.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), bob.ID, *task.AssignedUserID)
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_TieGoesToEarliestMember() {
	alice := suite.createTestUser("alice")
	bob := suite.createTestUser("bob")
	org := suite.createTestOrganization("Test Org", alice.ID)
	base := time.Now().Add(-time.Hour)
	suite.addMember(org.ID, alice.ID, base)
	suite.addMember(org.ID, bob.ID, base.Add(time.Minute))

	suite.createTestTask("Unclaimed", org.ID, alice.ID)

	task, _, err := suite.service.AssignLeastLoaded(org.ID, alice.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), alice.ID, *task.AssignedUserID)
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_OldestUnassignedFirst() {
	alice := suite.createTestUser("alice")
	org := suite.createTestOrganization("Test Org", alice.ID)
	suite.addMember(org.ID, alice.ID, time.Now())

	older := suite.createTestTask("Older", org.ID, alice.ID)
	suite.db.Model(older).Update("created_at", time.Now().Add(-time.Hour))
	suite.createTestTask("Newer", org.ID, alice.ID)

	task, _, err := suite.service.AssignLeastLoaded(org.ID, alice.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Older", task.Title)
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_NoUnassignedTasks() {
	alice := suite.createTestUser("alice")
	org := suite.createTestOrganization("Test Org", alice.ID)
	suite.addMember(org.ID, alice.ID, time.Now())
	suite.createAssignedTask("Claimed", org.ID, alice.ID, alice.ID, models.TaskStatusTodo)

	sub := suite.hub.Subscribe(org.ID)
	defer suite.hub.Unsubscribe(sub)

	_, _, err := suite.service.AssignLeastLoaded(org.ID, alice.ID)
	assert.ErrorIs(suite.T(), err, ErrNoUnassignedTasks)

	// Failed assignment leaves no trace
	assert.Equal(suite.T(), int64(0), suite.countActivities(org.ID))
	assert.Empty(suite.T(), drainEvents(sub))
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_NotMember() {
	alice := suite.createTestUser("alice")
	outsider := suite.createTestUser("mallory")
	org := suite.createTestOrganization("Test Org", alice.ID)
	suite.addMember(org.ID, alice.ID, time.Now())
	suite.createTestTask("Unclaimed", org.ID, alice.ID)

	_, _, err := suite.service.AssignLeastLoaded(org.ID, outsider.ID)
	assert.ErrorIs(suite.T(), err, ErrNotOrganizationMember)
}

func (suite *TaskServiceTestSuite) TestAssignLeastLoaded_RecordsAssignActivity() {
	alice := suite.createTestUser("alice")
	org := suite.createTestOrganization("Test Org", alice.ID)
	suite.addMember(org.ID, alice.ID, time.Now())
	task := suite.createTestTask("Unclaimed", org.ID, alice.ID)

	sub := suite.hub.Subscribe(org.ID)
	defer suite.hub.Unsubscribe(sub)

	_, _, err := suite.service.AssignLeastLoaded(org.ID, alice.ID)
	suite.Require().NoError(err)

	var activity models.Activity
	suite.db.Where("task_id = ?", task.ID).First(&activity)
	assert.Equal(suite.T(), models.ActivityActionAssign, activity.Action)
	assert.Equal(suite.T(), "alice", activity.Details.AssignedTo)

	events := drainEvents(sub)
	suite.Require().Len(events, 2)
	assert.Equal(suite.T(), broadcast.EventTaskUpdated, events[0].Kind)
	assert.Equal(suite.T(), broadcast.EventActivityAdded, events[1].Kind)
}

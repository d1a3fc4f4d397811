package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// handlerSuite wires real services over an in-memory database
type handlerSuite struct {
	suite.Suite
	db *gorm.DB

	projectService    *services.ProjectService
	membershipService *services.MembershipService
	taskService       *services.TaskService
	adminService      *services.AdminService
}

// SetupTest runs before each test
func (s *handlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)

	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(database.AutoMigrate(s.db))

	log, _ := logtest.NewNullLogger()

	userRepo := repository.NewUserRepository(s.db)
	projectRepo := repository.NewProjectRepository(s.db)
	taskRepo := repository.NewTaskRepository(s.db)
	membershipRepo := repository.NewMembershipRepository(s.db)

	s.projectService = services.NewProjectService(projectRepo, taskRepo, membershipRepo, log)
	s.membershipService = services.NewMembershipService(membershipRepo, userRepo, log)
	s.taskService = services.NewTaskService(taskRepo, membershipRepo, log)
	s.adminService = services.NewAdminService(userRepo, projectRepo, taskRepo, log)
}

// TearDownTest runs after each test
func (s *handlerSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *handlerSuite) createTestUser(email string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	s.Require().NoError(err)

	user := &models.User{
		Name:         "User " + email,
		Email:        email,
		PasswordHash: string(hash),
	}
	s.Require().NoError(s.db.Create(user).Error)
	return user
}

func (s *handlerSuite) createTestProject(name string) *models.Project {
	project := &models.Project{Name: name}
	s.Require().NoError(s.db.Create(project).Error)
	return project
}

func (s *handlerSuite) addTestMember(projectID, userID uint64, role models.ProjectRole) {
	member := &models.Membership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	s.Require().NoError(s.db.Create(member).Error)
}

func (s *handlerSuite) createTestTask(projectID, creatorID, assigneeID uint64, title string, priority models.TaskPriority) *models.Task {
	task := &models.Task{
		ProjectID:  projectID,
		CreatedBy:  creatorID,
		AssignedTo: assigneeID,
		Title:      title,
		Priority:   priority,
		DueDate:    datatypes.Date(mustDate("2030-01-01")),
	}
	s.Require().NoError(s.db.Create(task).Error)
	return task
}

// createAuthContext builds a gin context for a request made by userID.
// A zero userID leaves the request anonymous.
func createAuthContext(method, url string, body interface{}, userID uint64, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, url, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if userID != 0 {
		c.Set(constants.ContextKeyUserID, userID)
	}

	return c, w
}

func idParam(id uint64) gin.Params {
	return gin.Params{{Key: "id", Value: formatID(id)}}
}

func decodeBody(s *handlerSuite, w *httptest.ResponseRecorder, target interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func mustDate(value string) time.Time {
	parsed, err := time.Parse(constants.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return parsed
}

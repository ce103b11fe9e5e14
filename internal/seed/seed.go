// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"intranet/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	ShouldClean bool
}

// DefaultPassword is the password assigned to every seeded account.
const DefaultPassword = "ChangeMe-2024!"

var departmentNames = []string{
	"Human Resources", "Finance", "Engineering", "Operations",
	"Legal", "Facilities", "Communications",
}

var applicationNames = []string{
	"Payroll", "CRM", "Document Vault", "Time Tracking",
	"Build Pipeline", "Expense Reports", "Service Desk",
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users...", opts.NumUsers)
	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	departments, err := createDepartments(db)
	if err != nil {
		return fmt.Errorf("failed to create departments: %w", err)
	}
	log.Printf("✓ %d departments available", len(departments))

	roles, err := createRoles(db)
	if err != nil {
		return fmt.Errorf("failed to create roles: %w", err)
	}

	users, err := createUsers(db, opts.NumUsers, departments, roles)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	applications, err := createApplications(db, users)
	if err != nil {
		return fmt.Errorf("failed to create applications: %w", err)
	}
	log.Printf("✓ %d applications created", len(applications))

	if err := createSampleTickets(db, users, applications); err != nil {
		return fmt.Errorf("failed to create sample tickets: %w", err)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE audit_entries, active_entitlements, access_tickets,
		application_admins, system_applications, user_departments, users,
		platform_roles, departments RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createDepartments(db *gorm.DB) ([]models.Department, error) {
	departments := make([]models.Department, 0, len(departmentNames))
	for _, name := range departmentNames {
		d := models.Department{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&d).Error; err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, nil
}

func createRoles(db *gorm.DB) ([]models.PlatformRole, error) {
	roles := []models.PlatformRole{
		{
			Name: "Staff",
			Permissions: strings.Join([]string{
				models.CapAccessRequestsViewCreate,
			}, ","),
		},
		{
			Name: "Manager",
			Permissions: strings.Join([]string{
				models.CapAccessRequestsViewCreate,
				models.CapUsersView,
			}, ","),
		},
	}
	for i := range roles {
		if err := db.Where("name = ?", roles[i].Name).FirstOrCreate(&roles[i]).Error; err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func createUsers(db *gorm.DB, count int, departments []models.Department, roles []models.PlatformRole) ([]models.User, error) {
	if count <= 0 {
		count = 25
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count+1)

	// A known super admin for local development.
	root := models.User{
		Username:     "root",
		FullName:     "Platform Administrator",
		Email:        "root@intranet.local",
		Password:     string(hash),
		Position:     "IT Administrator",
		IsActive:     true,
		IsSuperAdmin: true,
	}
	if err := db.Where("username = ?", root.Username).FirstOrCreate(&root).Error; err != nil {
		return nil, err
	}
	users = append(users, root)

	for i := 0; i < count; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		role := roles[i%len(roles)]
		user := models.User{
			Username: strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, i)),
			FullName: first + " " + last,
			Email:    strings.ToLower(fmt.Sprintf("%s.%s%d@intranet.local", first, last, i)),
			Password: string(hash),
			Position: gofakeit.JobTitle(),
			IsActive: gofakeit.Number(0, 9) != 0, // roughly one in ten deactivated
			RoleID:   &role.ID,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		department := departments[gofakeit.Number(0, len(departments)-1)]
		if err := db.Model(&user).Association("Departments").Append(&department); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createApplications(db *gorm.DB, users []models.User) ([]models.SystemApplication, error) {
	applications := make([]models.SystemApplication, 0, len(applicationNames))
	for i, name := range applicationNames {
		app := models.SystemApplication{
			Name:        name,
			Description: gofakeit.Sentence(8),
			IsActive:    true,
		}
		if err := db.Where("name = ?", name).FirstOrCreate(&app).Error; err != nil {
			return nil, err
		}
		// Two admins per application, spread over the active user pool.
		admins := pickActive(users, 2, i)
		if len(admins) > 0 {
			if err := db.Model(&app).Association("Admins").Append(&admins); err != nil {
				return nil, err
			}
		}
		applications = append(applications, app)
	}
	return applications, nil
}

// pickActive selects up to n active users, offset so the admin sets differ
// between applications.
func pickActive(users []models.User, n, offset int) []models.User {
	var picked []models.User
	for i := 0; i < len(users) && len(picked) < n; i++ {
		u := users[(i+offset*3)%len(users)]
		if u.IsActive && !u.IsSuperAdmin {
			picked = append(picked, u)
		}
	}
	return picked
}

// createSampleTickets leaves the store in a realistic mid-flight state: some
// open requests, some approved with live entitlements, one pending
// revocation.
func createSampleTickets(db *gorm.DB, users []models.User, applications []models.SystemApplication) error {
	if len(users) < 4 || len(applications) < 3 {
		return nil
	}
	requester := users[1]
	now := time.Now()

	// Open activation requests.
	for i := 2; i < 5 && i < len(users); i++ {
		ticket := models.AccessTicket{
			UserID:        users[i].ID,
			ApplicationID: applications[i%len(applications)].ID,
			RequestType:   models.RequestTypeActivate,
			RequestedByID: requester.ID,
			RequestedAt:   now.Add(-time.Duration(i) * time.Hour),
			Note:          gofakeit.Sentence(6),
			Status:        models.TicketStatusNew,
		}
		if err := db.Create(&ticket).Error; err != nil {
			return err
		}
	}

	// An approved request with its live entitlement.
	subject := users[5%len(users)]
	app := applications[0]
	approver := users[0]
	approvedAt := now.Add(-48 * time.Hour)
	approved := models.AccessTicket{
		UserID:        subject.ID,
		ApplicationID: app.ID,
		RequestType:   models.RequestTypeActivate,
		RequestedByID: requester.ID,
		RequestedAt:   approvedAt.Add(-2 * time.Hour),
		Status:        models.TicketStatusApproved,
		CompletedByID: &approver.ID,
		CompletedAt:   &approvedAt,
	}
	if err := db.Create(&approved).Error; err != nil {
		return err
	}
	entitlement := models.ActiveEntitlement{
		UserID:         subject.ID,
		ApplicationID:  app.ID,
		GrantedAt:      approvedAt,
		CompletedByID:  approver.ID,
		SourceTicketID: &approved.ID,
	}
	if err := db.Create(&entitlement).Error; err != nil {
		return err
	}

	// A second grant mid-revocation.
	subject2 := users[6%len(users)]
	app2 := applications[1]
	grantedAt := now.Add(-30 * 24 * time.Hour)
	legacy := models.ActiveEntitlement{
		UserID:        subject2.ID,
		ApplicationID: app2.ID,
		GrantedAt:     grantedAt,
		CompletedByID: approver.ID,
		// no source ticket: grant predates the ticketing module
		PendingRevocation: true,
	}
	if err := db.Create(&legacy).Error; err != nil {
		return err
	}
	revoke := models.AccessTicket{
		UserID:        subject2.ID,
		ApplicationID: app2.ID,
		RequestType:   models.RequestTypeRevoke,
		RequestedByID: requester.ID,
		RequestedAt:   now.Add(-12 * time.Hour),
		Note:          "Left the project",
		Status:        models.TicketStatusNew,
	}
	return db.Create(&revoke).Error
}

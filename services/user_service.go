package services

import (
	"context"
	"strings"

	"qcmanager/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserRequest struct {
	Name      string `json:"name" validate:"required"`
	Firstname string `json:"firstname" validate:"required"`
	Society   string `json:"society"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	IsAdmin   bool   `json:"is_admin"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name"`
	Firstname *string `json:"firstname"`
	Society   *string `json:"society"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
	IsAdmin   *bool   `json:"is_admin"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ensureEmailFree(tx *gorm.DB, email string, exceptID uint) error {
	var count int64
	query := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &ConflictError{Message: "email " + email + " is already registered"}
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	return &user, nil
}

func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:      req.Name,
		Firstname: req.Firstname,
		Society:   strings.TrimSpace(req.Society),
		Email:     req.Email,
		Password:  hash,
		IsAdmin:   req.IsAdmin,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, user.Email, 0); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, userID uint, req *UpdateUserRequest) (*models.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	for field, v := range map[string]*string{"name": req.Name, "firstname": req.Firstname} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return nil, invalid("%s must not be blank", field)
		}
	}

	var hash string
	if req.Password != nil {
		h, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user", userID)
		}

		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Firstname != nil {
			user.Firstname = strings.TrimSpace(*req.Firstname)
		}
		if req.Society != nil {
			user.Society = strings.TrimSpace(*req.Society)
		}
		if req.Email != nil && *req.Email != user.Email {
			if err := ensureEmailFree(tx, *req.Email, userID); err != nil {
				return err
			}
			user.Email = *req.Email
		}
		if hash != "" {
			user.Password = hash
		}
		if req.IsAdmin != nil {
			user.IsAdmin = *req.IsAdmin
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user together with their attempts and the QCMs they
// authored.
func (s *UserService) DeleteUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return notFoundOr(err, "user", userID)
		}

		var authored []uint
		if err := tx.Model(&models.QCM{}).Where("author_id = ?", userID).Pluck("id", &authored).Error; err != nil {
			return err
		}
		for _, qcmID := range authored {
			if err := deleteQCMTree(tx, qcmID); err != nil {
				return err
			}
		}

		attempts := tx.Model(&models.QuizAttempt{}).Select("id").Where("id_user = ?", userID)
		if err := tx.Where("id_attempt IN (?)", attempts).Delete(&models.UserAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id_user = ?", userID).Delete(&models.QuizAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := s.CreateUser(ctx, &CreateUserRequest{
		Name:      "Admin",
		Firstname: "Admin",
		Email:     email,
		Password:  password,
		IsAdmin:   true,
	})
	if err != nil {
		return err
	}
	log.WithField("email", email).Info("created bootstrap administrator")
	return nil
}

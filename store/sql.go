package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qalamhq/qalam/apperr"
	"github.com/qalamhq/qalam/models"
)

// opTimeout bounds every storage round trip; operations that cannot reach
// the database inside it fail with Unavailable, never silently retried.
const opTimeout = 5 * time.Second

type sqlUserStore struct {
	db *gorm.DB
}

// NewSQLUserStore returns a MySQL-backed UserStore.
func NewSQLUserStore(db *gorm.DB) UserStore {
	return &sqlUserStore{db: db}
}

func (s *sqlUserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("user already exists")
		}
		return storageErr("failed to create user", err)
	}
	return nil
}

func (s *sqlUserStore) ByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, storageErr("failed to load user", err)
	}
	return &user, nil
}

func (s *sqlUserStore) ByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users, ids).Error; err != nil {
		return nil, storageErr("failed to load users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (s *sqlUserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, storageErr("failed to load user", err)
	}
	return &user, nil
}

func (s *sqlUserStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, storageErr("failed to load user", err)
	}
	return &user, nil
}

func (s *sqlUserStore) UpdateUsername(ctx context.Context, id uint, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return storageErr("failed to load user", err)
		}
		if user.Username == username {
			return nil
		}
		user.Username = username
		if err := tx.Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("username already taken")
			}
			return storageErr("failed to update user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type sqlPostStore struct {
	db *gorm.DB
}

// NewSQLPostStore returns a MySQL-backed PostStore.
func NewSQLPostStore(db *gorm.DB) PostStore {
	return &sqlPostStore{db: db}
}

func (s *sqlPostStore) Create(ctx context.Context, post *models.Post) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if post.Likes == nil {
		post.Likes = models.LikeSet{}
	}
	if post.Comments == nil {
		post.Comments = models.CommentList{}
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return storageErr("failed to create post", err)
	}
	return nil
}

func (s *sqlPostStore) ByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, storageErr("failed to load post", err)
	}
	return &post, nil
}

func (s *sqlPostStore) List(ctx context.Context, filter PostFilter) (*PostPage, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	filter = filter.Normalize()

	q := s.db.WithContext(ctx).Model(&models.Post{})
	if filter.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.AuthorID != 0 {
		q = q.Where("user_id = ?", filter.AuthorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, storageErr("failed to count posts", err)
	}

	var posts []models.Post
	offset := (filter.Page - 1) * filter.Limit
	if err := q.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&posts).Error; err != nil {
		return nil, storageErr("failed to list posts", err)
	}

	return &PostPage{
		Posts:       posts,
		Total:       total,
		TotalPages:  totalPages(total, filter.Limit),
		CurrentPage: filter.Page,
	}, nil
}

func (s *sqlPostStore) Mutate(ctx context.Context, id uint, fn func(*models.Post) error) (*models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock serializes concurrent like-toggles and comment
		// appends on the same post.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("post not found")
			}
			return storageErr("failed to load post", err)
		}
		if err := fn(&post); err != nil {
			return err
		}
		if err := tx.Save(&post).Error; err != nil {
			return storageErr("failed to update post", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *sqlPostStore) Delete(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	res := s.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return storageErr("failed to delete post", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}

func (s *sqlPostStore) UserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	var posts []models.Post
	if err := s.db.WithContext(ctx).
		Select("likes", "comments").
		Where("user_id = ?", userID).
		Find(&posts).Error; err != nil {
		return nil, storageErr("failed to load user posts", err)
	}

	stats := &models.UserStats{PostsCount: int64(len(posts))}
	for _, p := range posts {
		stats.TotalLikes += int64(len(p.Likes))
		stats.TotalComments += int64(len(p.Comments))
	}
	return stats, nil
}

// storageErr tags a database failure, keeping apperr kinds raised inside
// transactions intact.
func storageErr(message string, err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Unavailable(message, err)
}

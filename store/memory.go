package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qalamhq/qalam/apperr"
	"github.com/qalamhq/qalam/models"
)

// memUserStore is the in-memory UserStore used by tests.
type memUserStore struct {
	mu     sync.RWMutex
	users  map[uint]models.User
	nextID uint
}

// NewMemoryUserStore returns an empty in-memory UserStore.
func NewMemoryUserStore() UserStore {
	return &memUserStore{users: map[uint]models.User{}, nextID: 1}
}

func (s *memUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperr.Conflict("user already exists")
		}
	}
	user.ID = s.nextID
	s.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) ByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (s *memUserStore) ByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint]models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *memUserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *memUserStore) ByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *memUserStore) UpdateUsername(ctx context.Context, id uint, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	if u.Username != username {
		for _, other := range s.users {
			if other.ID != id && other.Username == username {
				return nil, apperr.Conflict("username already taken")
			}
		}
		u.Username = username
		u.UpdatedAt = time.Now()
		s.users[id] = u
	}
	return &u, nil
}

// memPostStore is the in-memory PostStore used by tests. Its single mutex
// stands in for the database's per-row locking: all mutations serialize.
type memPostStore struct {
	mu     sync.RWMutex
	posts  map[uint]models.Post
	nextID uint
}

// NewMemoryPostStore returns an empty in-memory PostStore.
func NewMemoryPostStore() PostStore {
	return &memPostStore{posts: map[uint]models.Post{}, nextID: 1}
}

func (s *memPostStore) Create(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = s.nextID
	s.nextID++
	if post.Likes == nil {
		post.Likes = models.LikeSet{}
	}
	if post.Comments == nil {
		post.Comments = models.CommentList{}
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	s.posts[post.ID] = clonePost(*post)
	return nil
}

func (s *memPostStore) ByID(ctx context.Context, id uint) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	p = clonePost(p)
	return &p, nil
}

func (s *memPostStore) List(ctx context.Context, filter PostFilter) (*PostPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter = filter.Normalize()

	matched := make([]models.Post, 0, len(s.posts))
	needle := strings.ToLower(filter.Search)
	for _, p := range s.posts {
		if filter.AuthorID != 0 && p.UserID != filter.AuthorID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		matched = append(matched, clonePost(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	end := start + filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return &PostPage{
		Posts:       matched[start:end],
		Total:       total,
		TotalPages:  totalPages(total, filter.Limit),
		CurrentPage: filter.Page,
	}, nil
}

func (s *memPostStore) Mutate(ctx context.Context, id uint, fn func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	working := clonePost(p)
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now()
	s.posts[id] = clonePost(working)
	return &working, nil
}

func (s *memPostStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return apperr.NotFound("post not found")
	}
	delete(s.posts, id)
	return nil
}

func (s *memPostStore) UserStats(ctx context.Context, userID uint) (*models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.UserStats{}
	for _, p := range s.posts {
		if p.UserID != userID {
			continue
		}
		stats.PostsCount++
		stats.TotalLikes += int64(len(p.Likes))
		stats.TotalComments += int64(len(p.Comments))
	}
	return stats, nil
}

func clonePost(p models.Post) models.Post {
	p.Likes = append(models.LikeSet{}, p.Likes...)
	p.Comments = append(models.CommentList{}, p.Comments...)
	return p
}

package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"maven/app/service/store"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
)

var ErrPageNotFound = errors.New("page not found")

// NewPage creates a page on top of the list and makes it active.
func (s *Service) NewPage(ctx context.Context, title, content string) (Page, error) {
	if title == "" {
		title = defaultPageTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page := Page{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: s.now(),
	}

	pages := append([]Page{page}, s.pages...)
	if err := s.save(ctx, keyPages, pages); err != nil {
		return Page{}, err
	}

	s.pages = pages
	s.activePageID = page.ID

	return page, nil
}

func (s *Service) SelectPage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pageIndex(id) < 0 {
		return ErrPageNotFound
	}

	s.activePageID = id

	return nil
}

func (s *Service) ActivePage() (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.pageIndex(s.activePageID)
	if index < 0 {
		return Page{}, false
	}

	return s.pages[index], true
}

func (s *Service) DeletePage(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deletePage(ctx, id); err != nil {
		return "", err
	}

	return "Note successfully deleted.", nil
}

func (s *Service) DeleteNoteByTitle(ctx context.Context, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := pie.FindFirstUsing(s.pages, func(p Page) bool {
		return strings.EqualFold(p.Title, title)
	})
	if index < 0 {
		return fmt.Sprintf("Could not find a note with the title \"%s\".", title), nil
	}

	if err := s.deletePage(ctx, s.pages[index].ID); err != nil {
		return "", err
	}

	return fmt.Sprintf("Successfully deleted the note titled \"%s\".", title), nil
}

func (s *Service) deletePage(ctx context.Context, id string) error {
	index := s.pageIndex(id)
	if index < 0 {
		return ErrPageNotFound
	}

	if key := s.pages[index].BannerKey; key != "" {
		if err := s.store.DeleteBlob(ctx, key); err != nil {
			slog.Error("Failed to delete banner", "page", id, "error", err)
		}
	}

	pages := slices.Delete(slices.Clone(s.pages), index, index+1)
	if err := s.save(ctx, keyPages, pages); err != nil {
		return err
	}

	s.pages = pages
	if s.activePageID == id {
		s.activePageID = ""
		if len(pages) > 0 {
			s.activePageID = pages[0].ID
		}
	}

	return nil
}

// AppendToActivePage adds generated content below the active page's content.
func (s *Service) AppendToActivePage(ctx context.Context, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.pageIndex(s.activePageID)
	if index < 0 {
		return "⚠️ Please select a note first before adding content.", nil
	}

	formatted := strings.ReplaceAll(content, "\n", "<br/>")

	pages := slices.Clone(s.pages)
	page := &pages[index]
	if page.Content != "" {
		page.Content = page.Content + "<br/><br/>" + formatted
	} else {
		page.Content = formatted
	}

	if err := s.save(ctx, keyPages, pages); err != nil {
		return "", err
	}
	s.pages = pages

	return fmt.Sprintf("✍️ Content added to note: \"%s\"", page.Title), nil
}

func (s *Service) SetBanner(ctx context.Context, pageID string, blob store.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.pageIndex(pageID)
	if index < 0 {
		return ErrPageNotFound
	}

	key := "banner-" + pageID
	if err := s.store.PutBlob(ctx, key, blob); err != nil {
		return err
	}

	if s.pages[index].BannerKey == key {
		return nil
	}

	pages := slices.Clone(s.pages)
	pages[index].BannerKey = key
	if err := s.save(ctx, keyPages, pages); err != nil {
		return err
	}
	s.pages = pages

	return nil
}

func (s *Service) Banner(ctx context.Context, pageID string) (*store.Blob, error) {
	s.mu.Lock()
	index := s.pageIndex(pageID)
	var key string
	if index >= 0 {
		key = s.pages[index].BannerKey
	}
	s.mu.Unlock()

	if key == "" {
		return nil, ErrPageNotFound
	}

	blob, found, err := s.store.GetBlob(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPageNotFound
	}

	return blob, nil
}

func (s *Service) pageIndex(id string) int {
	if id == "" {
		return -1
	}

	return pie.FindFirstUsing(s.pages, func(p Page) bool {
		return p.ID == id
	})
}

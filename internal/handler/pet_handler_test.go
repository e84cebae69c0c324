package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/petpals/internal/middleware"
	"github.com/hitoshi/petpals/internal/model"
	"github.com/hitoshi/petpals/internal/pet"
)

// mockPetService はPetServiceInterfaceのモック実装。
type mockPetService struct {
	listAllFn        func(ctx context.Context, page pet.Page) (*pet.ListResult, error)
	listAvailableFn  func(ctx context.Context, page pet.Page) (*pet.ListResult, error)
	listByOwnerFn    func(ctx context.Context, email string, page pet.Page) (*pet.ListResult, error)
	listByCategoryFn func(ctx context.Context, category string) ([]*model.Pet, error)
	searchFn         func(ctx context.Context, name, category string) ([]*model.Pet, error)
	getFn            func(ctx context.Context, id string) (*model.Pet, error)
	createFn         func(ctx context.Context, input pet.CreateInput) (*model.Pet, error)
	updateFn         func(ctx context.Context, id string, input pet.CreateInput) (int64, error)
	setAdoptedFn     func(ctx context.Context, id string, adopted bool) error
	deleteFn         func(ctx context.Context, id string) (int64, error)
}

func (m *mockPetService) ListAll(ctx context.Context, page pet.Page) (*pet.ListResult, error) {
	return m.listAllFn(ctx, page)
}

func (m *mockPetService) ListAvailable(ctx context.Context, page pet.Page) (*pet.ListResult, error) {
	return m.listAvailableFn(ctx, page)
}

func (m *mockPetService) ListByOwner(ctx context.Context, email string, page pet.Page) (*pet.ListResult, error) {
	return m.listByOwnerFn(ctx, email, page)
}

func (m *mockPetService) ListByCategory(ctx context.Context, category string) ([]*model.Pet, error) {
	return m.listByCategoryFn(ctx, category)
}

func (m *mockPetService) Search(ctx context.Context, name, category string) ([]*model.Pet, error) {
	return m.searchFn(ctx, name, category)
}

func (m *mockPetService) Get(ctx context.Context, id string) (*model.Pet, error) {
	return m.getFn(ctx, id)
}

func (m *mockPetService) Create(ctx context.Context, input pet.CreateInput) (*model.Pet, error) {
	return m.createFn(ctx, input)
}

func (m *mockPetService) Update(ctx context.Context, id string, input pet.CreateInput) (int64, error) {
	return m.updateFn(ctx, id, input)
}

func (m *mockPetService) SetAdopted(ctx context.Context, id string, adopted bool) error {
	return m.setAdoptedFn(ctx, id, adopted)
}

func (m *mockPetService) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteFn(ctx, id)
}

// allowSelfGate は本人一致のみ許可するSelfAuthorizer。
type allowSelfGate struct{}

func (allowSelfGate) RequireSelf(identityEmail, targetEmail string) error {
	if identityEmail != targetEmail {
		return model.NewForbiddenError()
	}
	return nil
}

func TestPetHandler_Listing_PassesPageParams(t *testing.T) {
	service := &mockPetService{
		listAvailableFn: func(ctx context.Context, page pet.Page) (*pet.ListResult, error) {
			if page.Page != 2 || page.Limit != 10 {
				t.Errorf("page = %+v, want {Page:2 Limit:10}", page)
			}
			return &pet.ListResult{
				Pets: []*model.Pet{
					{ID: "11", PetName: "Momo", Adopted: false},
				},
				Total: 25,
			}, nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodGet, "/pets/listing?page=2&limit=10", nil)
	w := httptest.NewRecorder()

	h.Listing(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp petListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// 総件数はページサイズではなくフィルタ条件での全件数
	if resp.PetsCount != 25 {
		t.Errorf("petsCount = %d, want 25", resp.PetsCount)
	}
	if len(resp.Pets) != 1 {
		t.Errorf("len(pets) = %d, want 1", len(resp.Pets))
	}
}

func TestPetHandler_ListByOwner_Self(t *testing.T) {
	service := &mockPetService{
		listByOwnerFn: func(ctx context.Context, email string, page pet.Page) (*pet.ListResult, error) {
			if email != "owner@example.com" {
				t.Errorf("email = %q, want owner@example.com", email)
			}
			return &pet.ListResult{Pets: []*model.Pet{{ID: "1", Email: email}}, Total: 1}, nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodGet, "/pets/userAdded/owner@example.com", nil)
	req = req.WithContext(middleware.ContextWithEmail(req.Context(), "owner@example.com"))
	req = withChiURLParam(req, "email", "owner@example.com")
	w := httptest.NewRecorder()

	h.ListByOwner(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestPetHandler_ListByOwner_RejectsOtherUser(t *testing.T) {
	service := &mockPetService{
		listByOwnerFn: func(ctx context.Context, email string, page pet.Page) (*pet.ListResult, error) {
			t.Error("ListByOwner should not be called when self check fails")
			return nil, nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodGet, "/pets/userAdded/victim@example.com", nil)
	req = req.WithContext(middleware.ContextWithEmail(req.Context(), "attacker@example.com"))
	req = withChiURLParam(req, "email", "victim@example.com")
	w := httptest.NewRecorder()

	h.ListByOwner(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestPetHandler_ListByOwner_Unauthenticated(t *testing.T) {
	h := NewPetHandler(&mockPetService{}, allowSelfGate{})

	req := httptest.NewRequest(http.MethodGet, "/pets/userAdded/owner@example.com", nil)
	req = withChiURLParam(req, "email", "owner@example.com")
	w := httptest.NewRecorder()

	h.ListByOwner(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestPetHandler_Search_ForwardsQueryParams(t *testing.T) {
	service := &mockPetService{
		searchFn: func(ctx context.Context, name, category string) ([]*model.Pet, error) {
			if name != "momo" {
				t.Errorf("name = %q, want momo", name)
			}
			if category != "cat" {
				t.Errorf("category = %q, want cat", category)
			}
			return []*model.Pet{{ID: "1", PetName: "Momo"}}, nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodGet, "/pets/search?name=momo&category=cat", nil)
	w := httptest.NewRecorder()

	h.Search(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []petResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].PetName != "Momo" {
		t.Errorf("response = %+v, want one pet named Momo", resp)
	}
}

func TestPetHandler_Details_NotFound(t *testing.T) {
	service := &mockPetService{
		getFn: func(ctx context.Context, id string) (*model.Pet, error) {
			return nil, model.NewPetNotFoundError(id)
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodGet, "/pets/details/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.Details(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPetHandler_Create(t *testing.T) {
	service := &mockPetService{
		createFn: func(ctx context.Context, input pet.CreateInput) (*model.Pet, error) {
			if input.PetName != "Hachi" {
				t.Errorf("PetName = %q, want Hachi", input.PetName)
			}
			if input.ImageURL != "https://example.com/hachi.png" {
				t.Errorf("ImageURL = %q, want the image field value", input.ImageURL)
			}
			return &model.Pet{ID: "new-id", PetName: input.PetName, ImageURL: input.ImageURL}, nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	body := `{"email":"owner@example.com","petName":"Hachi","petCategory":"dog","image":"https://example.com/hachi.png"}`
	req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp petResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "new-id" {
		t.Errorf("id = %q, want new-id", resp.ID)
	}
	if resp.Image != "https://example.com/hachi.png" {
		t.Errorf("image = %q, want the stored image URL", resp.Image)
	}
}

func TestPetHandler_UpdateStatus(t *testing.T) {
	service := &mockPetService{
		setAdoptedFn: func(ctx context.Context, id string, adopted bool) error {
			if id != "pet-1" {
				t.Errorf("id = %q, want pet-1", id)
			}
			if !adopted {
				t.Error("adopted = false, want true")
			}
			return nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodPatch, "/pets/status/pet-1", strings.NewReader(`{"adopted":true}`))
	req = withChiURLParam(req, "id", "pet-1")
	w := httptest.NewRecorder()

	h.UpdateStatus(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestPetHandler_Delete_Idempotent(t *testing.T) {
	service := &mockPetService{
		deleteFn: func(ctx context.Context, id string) (int64, error) {
			return 0, nil
		},
	}
	h := NewPetHandler(service, allowSelfGate{})

	req := httptest.NewRequest(http.MethodDelete, "/pets/ghost", nil)
	req = withChiURLParam(req, "id", "ghost")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	// 存在しないIDの削除も200で削除行数0を返す
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]int64
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["deleted"] != 0 {
		t.Errorf("deleted = %d, want 0", resp["deleted"])
	}
}

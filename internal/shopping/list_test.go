package shopping

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

func TestWriteList(t *testing.T) {
	sess := testSession(t)
	price := 89.99
	rating := 4.5
	reviews := 320

	imagePath, err := sess.Store(session.CategoryProducts, "lamp_abc123.jpg", []byte("img"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	products := []models.ProductCandidate{
		{
			Name:        "Rattan Floor Lamp",
			ProductType: "floor lamp",
			Area:        "Lighting",
			Price:       &price,
			Retailer:    "Example Shop",
			URL:         "https://shop.example/lamp",
			Rating:      &rating,
			Reviews:     &reviews,
			ImagePath:   imagePath,
		},
		{
			Name:        "Ceramic Vase",
			ProductType: "vase",
			Retailer:    "Example Shop",
			URL:         "https://shop.example/vase",
			ImagePath:   "/somewhere/else/vase.jpg",
		},
	}

	jsonPath, err := WriteList(sess, "scandinavian", products)
	if err != nil {
		t.Fatalf("WriteList: %v", err)
	}
	if jsonPath == "" {
		t.Fatal("Expected a JSON artifact path")
	}

	data, err := sess.Read(session.CategoryShoppingLists, "shopping_list.json")
	if err != nil {
		t.Fatalf("Read JSON list: %v", err)
	}

	var list struct {
		SessionID string `json:"session_id"`
		Style     string `json:"style"`
		Products  []struct {
			Name     string   `json:"name"`
			Price    *float64 `json:"price"`
			ImageRef string   `json:"image_ref"`
		} `json:"products"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("Unmarshal list: %v", err)
	}
	if list.SessionID != sess.ID || list.Style != "scandinavian" {
		t.Errorf("Unexpected header: %+v", list)
	}
	if len(list.Products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(list.Products))
	}
	if list.Products[0].Price == nil || *list.Products[0].Price != 89.99 {
		t.Errorf("Unexpected price %v", list.Products[0].Price)
	}
	// In-session images are referenced relative to the session root.
	if strings.HasPrefix(list.Products[0].ImageRef, "/") {
		t.Errorf("Expected session-relative image ref, got %q", list.Products[0].ImageRef)
	}
	// Out-of-session paths pass through unchanged.
	if list.Products[1].ImageRef != "/somewhere/else/vase.jpg" {
		t.Errorf("Unexpected image ref %q", list.Products[1].ImageRef)
	}

	page, err := sess.Read(session.CategoryShoppingLists, "shopping_list.html")
	if err != nil {
		t.Fatalf("Read HTML list: %v", err)
	}
	html := string(page)
	for _, want := range []string{"Rattan Floor Lamp", "Ceramic Vase", "$89.99", "https://shop.example/lamp"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML list missing %q", want)
		}
	}
}

func TestWriteListEmpty(t *testing.T) {
	sess := testSession(t)
	if _, err := WriteList(sess, "modern", nil); err != nil {
		t.Fatalf("WriteList with no products: %v", err)
	}
	data, err := sess.Read(session.CategoryShoppingLists, "shopping_list.json")
	if err != nil {
		t.Fatalf("Read list: %v", err)
	}
	var list struct {
		Products []any `json:"products"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(list.Products) != 0 {
		t.Errorf("Expected empty product list, got %d", len(list.Products))
	}
}

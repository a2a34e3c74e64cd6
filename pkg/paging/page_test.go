package paging

import (
	"testing"

	"github.com/opcall-go/opcall/pkg/transport"
)

func TestDecodePage(t *testing.T) {
	convention := DefaultConvention()

	tests := []struct {
		name      string
		body      string
		wantItems int
		wantToken string
		wantErr   bool
	}{
		{
			name:      "envelope with items and link",
			body:      `{"value":[{"id":1},{"id":2}],"nextLink":"https://api.example.com/widgets?page=2"}`,
			wantItems: 2,
			wantToken: "https://api.example.com/widgets?page=2",
		},
		{
			name:      "last page",
			body:      `{"value":[{"id":3}]}`,
			wantItems: 1,
		},
		{
			name:      "absent items treated as empty",
			body:      `{"nextLink":"t2"}`,
			wantItems: 0,
			wantToken: "t2",
		},
		{
			name:      "null items treated as empty",
			body:      `{"value":null,"nextLink":"t2"}`,
			wantItems: 0,
			wantToken: "t2",
		},
		{
			name:      "bare array body",
			body:      `[1,2,3]`,
			wantItems: 3,
		},
		{
			name:      "bare array body with leading whitespace",
			body:      "\n  [1,2]",
			wantItems: 2,
		},
		{
			name:      "empty body",
			body:      "",
			wantItems: 0,
		},
		{
			name:      "whitespace-only body",
			body:      "  \n",
			wantItems: 0,
		},
		{
			name:    "malformed body",
			body:    `{"value":`,
			wantErr: true,
		},
		{
			name:    "non-array items",
			body:    `{"value":42}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := convention.DecodePage(&transport.Response{
				StatusCode: 200,
				Body:       []byte(tt.body),
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodePage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(page.Items), tt.wantItems)
			}
			if page.ContinuationToken != tt.wantToken {
				t.Errorf("token = %q, want %q", page.ContinuationToken, tt.wantToken)
			}
		})
	}
}

func TestDecodePage_CustomConvention(t *testing.T) {
	convention := Convention{ItemsField: "items", NextField: "next"}

	page, err := convention.DecodePage(&transport.Response{
		StatusCode: 200,
		Body:       []byte(`{"items":["a"],"next":"cursor-2"}`),
	})
	if err != nil {
		t.Fatalf("DecodePage() error = %v", err)
	}
	if len(page.Items) != 1 || page.ContinuationToken != "cursor-2" {
		t.Errorf("page = %+v, want 1 item and cursor-2", page)
	}
}

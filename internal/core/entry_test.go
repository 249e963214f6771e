package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestHeaders(t *testing.T) {
	want := "Resident,H,AAC,PHONE,DIR,ENT,SL,DEVICE#,NOTES,VENDOR,DEVICE2,DEVICE3,DEVICE4"
	if got := HeaderLine(); got != want {
		t.Errorf("HeaderLine() = %q, want %q", got, want)
	}
	if got := len(Headers()); got != 13 {
		t.Errorf("len(Headers()) = %d, want 13", got)
	}

	// callers get their own copy
	h := Headers()
	h[0] = "changed"
	if Headers()[0] != "Resident" {
		t.Error("Headers() returned shared slice")
	}
}

func TestEntry_Fields(t *testing.T) {
	tests := []struct {
		name    string
		builder EntryBuilder
		want    string
	}{
		{
			name:    "name only",
			builder: EntryBuilder{DisplayName: "Lobby"},
			want:    "Lobby,N,,,,,,,,N,,,",
		},
		{
			name: "full household",
			builder: EntryBuilder{
				DisplayName:     "Smith",
				AreaCode:        "916",
				PhoneNumber:     "1234567",
				DirectoryNumber: IntPtr(5),
				EntryCode:       IntPtr(42),
				SecurityLevel:   IntPtr(3),
				DeviceNumbers:   []string{"D1", "D2", "D3", "D4"},
				Notes:           "12 Oak",
			},
			want: "Smith,N,1916,1234567,005,0042,03,D1,12 Oak,N,D2,D3,D4",
		},
		{
			name: "hidden vendor",
			builder: EntryBuilder{
				DisplayName:   "Acme",
				Hidden:        true,
				Vendor:        true,
				EntryCode:     IntPtr(0),
				SecurityLevel: IntPtr(0),
			},
			want: "Acme,Y,,,,0000,00,,,Y,,,",
		},
		{
			name: "single device",
			builder: EntryBuilder{
				DisplayName:   "Jones",
				DeviceNumbers: []string{"D9"},
			},
			want: "Jones,N,,,,,,D9,,N,,,",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.builder.Build()
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if got := e.Line(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
			if got := len(e.Fields()); got != 13 {
				t.Errorf("len(Fields()) = %d, want 13", got)
			}
			if e.String() != e.Line() {
				t.Error("String() should match Line()")
			}
		})
	}
}

func TestEntryBuilder_Validation(t *testing.T) {
	t.Run("code without level", func(t *testing.T) {
		_, err := EntryBuilder{DisplayName: "Smith", EntryCode: IntPtr(1)}.Build()
		var e *IncompleteEntryCodeError
		if !errors.As(err, &e) || e.Name != "Smith" {
			t.Errorf("expected IncompleteEntryCodeError, got %v", err)
		}
	})

	t.Run("level without code", func(t *testing.T) {
		_, err := EntryBuilder{DisplayName: "Smith", SecurityLevel: IntPtr(1)}.Build()
		var e *IncompleteEntryCodeError
		if !errors.As(err, &e) {
			t.Errorf("expected IncompleteEntryCodeError, got %v", err)
		}
	})

	t.Run("too many devices", func(t *testing.T) {
		_, err := EntryBuilder{DisplayName: "Smith", DeviceNumbers: []string{"1", "2", "3", "4", "5"}}.Build()
		var e *TooManyDevicesError
		if !errors.As(err, &e) || e.Count != 5 {
			t.Errorf("expected TooManyDevicesError, got %v", err)
		}
		if !strings.Contains(err.Error(), "max 4") {
			t.Errorf("error %q should name the limit", err)
		}
	})
}

func TestEntry_IsImmutable(t *testing.T) {
	devices := []string{"D1"}
	code := 7
	b := EntryBuilder{
		DisplayName:   "Smith",
		DeviceNumbers: devices,
		EntryCode:     &code,
		SecurityLevel: IntPtr(1),
	}
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	devices[0] = "changed"
	code = 9
	e.DeviceNumbers()[0] = "changed again"

	if got := e.DeviceNumbers(); !reflect.DeepEqual(got, []string{"D1"}) {
		t.Errorf("DeviceNumbers() = %v, want [D1]", got)
	}
	if got, _ := e.EntryCode(); got != 7 {
		t.Errorf("EntryCode() = %d, want 7", got)
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	e, err := EntryBuilder{
		DisplayName:     "Smith",
		PhoneNumber:     "1234567",
		DirectoryNumber: IntPtr(5),
		EntryCode:       IntPtr(1200),
		SecurityLevel:   IntPtr(1),
	}.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if got["displayName"] != "Smith" || got["entryCode"] != float64(1200) || got["hidden"] != false {
		t.Errorf("unexpected JSON %s", data)
	}
	if _, ok := got["areaCode"]; ok {
		t.Errorf("empty areaCode should be omitted: %s", data)
	}
}

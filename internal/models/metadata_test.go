package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeInfoSearchText(t *testing.T) {
	ti := TimeInfo{Time: time.Date(2023, time.July, 15, 14, 30, 0, 0, time.UTC)}
	assert.Equal(t, "Saturday 2023-07-15 14:30:00 July", ti.SearchText())
}

func TestTimeInfoUnmarshalFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"naive", `{"dt":"2023-07-15T14:30:00"}`, time.Date(2023, 7, 15, 14, 30, 0, 0, time.UTC)},
		{"fractional", `{"dt":"2023-07-15T14:30:00.250000"}`, time.Date(2023, 7, 15, 14, 30, 0, 250000000, time.UTC)},
		{"rfc3339", `{"dt":"2023-07-15T14:30:00Z"}`, time.Date(2023, 7, 15, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ti TimeInfo
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ti))
			assert.True(t, tt.want.Equal(ti.Time), "got %v", ti.Time)
		})
	}

	var ti TimeInfo
	err := json.Unmarshal([]byte(`{"dt":"yesterday"}`), &ti)
	assert.True(t, errors.Is(err, ErrInvalidMetadata))
}

func TestLocationInfoText(t *testing.T) {
	loc := LocationInfo{
		Lat: 50.85, Lon: 4.35,
		Country:  "Belgium",
		State:    "Brussels-Capital",
		Postcode: "1000",
		City:     "Brussels",
		Street:   "Rue de la Loi",
		Name:     "Parc de Bruxelles",
	}

	assert.Equal(t, "Belgium Brussels-Capital 1000 Brussels Rue de la Loi Parc de Bruxelles", loc.SearchText())
	assert.Equal(t, "Parc de Bruxelles, Rue de la Loi, 1000, Brussels, Brussels-Capital, Belgium", loc.Description())

	bare := LocationInfo{Lat: 1, Lon: 2}
	assert.Equal(t, "", bare.SearchText())
	assert.Equal(t, "", bare.Description())
}

func TestSearchDataKeywordText(t *testing.T) {
	data := SearchData{
		Description: "a red cat",
		Tags:        []string{"cat", "red"},
		Time:        &TimeInfo{Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		Location:    &LocationInfo{Country: "Norway"},
	}

	assert.Equal(t, "a red cat cat red", data.KeywordText(false))
	assert.Equal(t, "a red cat cat red Monday 2024-01-01 09:00:00 January Norway", data.KeywordText(true))
	assert.Equal(t, data.KeywordText(true), data.SearchText())
}

func TestSearchDataTextualDescription(t *testing.T) {
	when := &TimeInfo{Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	where := &LocationInfo{City: "Oslo", Country: "Norway"}

	tests := []struct {
		name string
		data SearchData
		want string
	}{
		{
			name: "location and time first",
			data: SearchData{Description: "A fjord", Tags: []string{"fjord", "water"}, Time: when, Location: where},
			want: "Image taken at Oslo, Norway on Monday 2024-01-01 09:00:00 January.\n" +
				"Image description: A fjord.\n\nKeywords: fjord, water.",
		},
		{
			name: "location only",
			data: SearchData{Location: where},
			want: "Image taken at Oslo, Norway.",
		},
		{
			name: "time only",
			data: SearchData{Time: when, Tags: []string{"snow"}},
			want: "Image taken on Monday 2024-01-01 09:00:00 January.\n\nKeywords: snow.",
		},
		{
			name: "coordinates without place names count as no location",
			data: SearchData{Description: "x", Location: &LocationInfo{Lat: 1, Lon: 2}},
			want: "Image description: x.",
		},
		{
			name: "empty",
			data: SearchData{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.TextualDescription())
		})
	}
}

func TestImageMetadataRoundTrip(t *testing.T) {
	base := ImageMetadata{
		Filename:          "IMG_0001.jpg",
		Model:             "llava:7b",
		ExtractionSeconds: 5.25,
		SearchData: SearchData{
			Description: "A dog in a park",
			Tags:        []string{"dog", "grass", "park"},
			Time:        &TimeInfo{Time: time.Date(2022, 5, 1, 10, 11, 12, 0, time.UTC)},
			Location:    &LocationInfo{Lat: 51.5, Lon: -0.12, City: "London", Country: "United Kingdom"},
		},
	}

	t.Run("without embeddings", func(t *testing.T) {
		data, err := json.Marshal(base)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"embeddings":null`)

		var got ImageMetadata
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, base, got)
		assert.Nil(t, got.Embeddings)
	})

	t.Run("with embeddings", func(t *testing.T) {
		withEmb := base
		withEmb.Embeddings = &ImageEmbeddings{
			Img: Embedding{Model: JinaEmbeddingsV4_128, Values: vector(128, 0.5)},
			Txt: Embedding{Model: JinaEmbeddingsV4_128, Values: vector(128, -0.25)},
		}

		data, err := json.Marshal(withEmb)
		require.NoError(t, err)

		var got ImageMetadata
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, withEmb, got)
	})
}

func TestImageMetadataRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing filename", `{"model":"m","t_extract":1,"search_data":{}}`},
		{"empty filename", `{"filename":"","model":"m","t_extract":1,"search_data":{}}`},
		{"missing model", `{"filename":"a.jpg","t_extract":1,"search_data":{}}`},
		{"missing t_extract", `{"filename":"a.jpg","model":"m","search_data":{}}`},
		{"missing search_data", `{"filename":"a.jpg","model":"m","t_extract":1}`},
		{"empty embeddings", `{"filename":"a.jpg","model":"m","t_extract":1,"search_data":{},"embeddings":{}}`},
		{"null img embedding", `{"filename":"a.jpg","model":"m","t_extract":1,"search_data":{},"embeddings":{"img":null,"txt":null}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m ImageMetadata
			err := json.Unmarshal([]byte(tt.in), &m)
			assert.True(t, errors.Is(err, ErrInvalidMetadata), "got %v", err)
		})
	}
}

func TestImageMetadataToleratesOlderRecords(t *testing.T) {
	// Written before time/location/embeddings existed, with a since-removed field.
	in := `{
		"filename": "old.png",
		"model": "moondream:1.8b",
		"t_extract": 1.5,
		"search_data": {"description": "A beach", "tags": ["beach", "sand"], "location": {"lat": 1, "lon": 2, "town": "Gone"}}
	}`

	var m ImageMetadata
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	assert.Equal(t, "old.png", m.Filename)
	assert.Nil(t, m.SearchData.Time)
	require.NotNil(t, m.SearchData.Location)
	assert.Equal(t, LocationInfo{Lat: 1, Lon: 2}, *m.SearchData.Location)
	assert.Nil(t, m.Embeddings)
}

func vector(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v * float32(i%7+1) / 7
	}
	return out
}

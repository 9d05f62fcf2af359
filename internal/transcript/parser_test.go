package transcript_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profescore/review-extractor/internal/transcript"
)

func TestParse_AndroidStyle(t *testing.T) {
	t.Parallel()
	msgs := transcript.Parse("12/01/24, 9:00 - Ana: Buen profesor\n12/01/24, 9:01 - Ana: muy claro explicando")
	require.Len(t, msgs, 2)
	assert.Equal(t, "Ana", msgs[0].Author)
	assert.Equal(t, "Ana", msgs[1].Author)
	assert.Equal(t, "Buen profesor", msgs[0].Body)
	assert.Equal(t, "muy claro explicando", msgs[1].Body)
	assert.Equal(t, "12/01/24 9:00", msgs[0].Timestamp)
}

func TestParse_IOSStyle(t *testing.T) {
	t.Parallel()
	msgs := transcript.Parse("[12/01/2024, 09:00:15] Luis Pérez: el profe de cálculo es muy barco")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Luis Pérez", msgs[0].Author)
	assert.Equal(t, "el profe de cálculo es muy barco", msgs[0].Body)
}

func TestParse_TwelveHourClock(t *testing.T) {
	t.Parallel()
	msgs := transcript.Parse("1/2/24, 9:05 p. m. - Majo: recomiendan a Lopez?")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Majo", msgs[0].Author)
}

func TestParse_MultilineContinuation(t *testing.T) {
	t.Parallel()
	in := "12/01/24, 9:00 - Ana: primera linea\nsegunda linea\ntercera linea\n12/01/24, 9:05 - Beto: ok"
	msgs := transcript.Parse(in)
	require.Len(t, msgs, 2)
	assert.Equal(t, "primera linea\nsegunda linea\ntercera linea", msgs[0].Body)
	assert.Equal(t, "ok", msgs[1].Body)
}

func TestParse_BlankLinesSkipped(t *testing.T) {
	t.Parallel()
	in := "12/01/24, 9:00 - Ana: hola\n\n\ncontinuacion\n"
	msgs := transcript.Parse(in)
	require.Len(t, msgs, 1)
	// Blank lines neither start nor continue a record.
	assert.Equal(t, "hola\ncontinuacion", msgs[0].Body)
}

func TestParse_NoHeaders(t *testing.T) {
	t.Parallel()
	msgs := transcript.Parse("solo texto suelto\nsin formato de chat\n")
	assert.Empty(t, msgs)
}

func TestParse_LeadingJunkBeforeFirstHeader(t *testing.T) {
	t.Parallel()
	in := "Los mensajes están cifrados de extremo a extremo\n12/01/24, 9:00 - Ana: hola"
	msgs := transcript.Parse(in)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hola", msgs[0].Body)
}

func TestParse_FlushesLastOpenRecord(t *testing.T) {
	t.Parallel()
	msgs := transcript.Parse("12/01/24, 9:00 - Ana: ultimo\ncola")
	require.Len(t, msgs, 1)
	assert.Equal(t, "ultimo\ncola", msgs[0].Body)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, transcript.Parse(""))
}

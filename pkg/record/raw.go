package record

// Raw is an undecoded user object as returned by the API. Numbers are kept
// as json.Number so 64-bit IDs survive decoding.
type Raw map[string]any

package handlers

import (
	"log/slog"
	"net/http"
)

// indexPage is the single-page upload form served at the root. The API
// is the real surface; this page exists so the service is usable from a
// browser without extra tooling.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>ReVibe</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 3em auto; color: #333; }
label { display: block; margin-top: 1em; font-weight: bold; }
input, select, textarea { width: 100%; padding: 0.4em; margin-top: 0.3em; }
button { margin-top: 1.5em; padding: 0.6em 2em; }
</style>
</head>
<body>
<h1>ReVibe Design Generator</h1>
<form method="post" action="/api/generate" enctype="multipart/form-data">
<label>Room photo <input type="file" name="image" accept="image/*" required></label>
<label>Room type <input type="text" name="room_type" placeholder="living room"></label>
<label>Design style <input type="text" name="design_style" placeholder="modern"></label>
<label>Budget tier
<select name="budget_tier">
<option value="">Any</option>
<option value="budget">Budget</option>
<option value="mid-range">Mid-range</option>
<option value="premium">Premium</option>
</select></label>
<label>Custom instructions <textarea name="custom_instructions" rows="3"></textarea></label>
<label>Mode
<select name="mode">
<option value="standard">Standard</option>
<option value="fast">Fast</option>
</select></label>
<button type="submit">Generate design</button>
</form>
</body>
</html>
`

// HandleIndex serves the upload form. Any other path under / is a 404.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	if _, err := w.Write([]byte(indexPage)); err != nil {
		slog.Error("Unable to write index page", "err", err)
	}
}

package preview

// pageTemplate is the HTML shell. It is rendered with the same template
// engine as exports; only the goldmark output is unescaped.
const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tabsidian preview</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 52rem; padding: 1rem 2rem; }
pre { background: #f4f4f4; padding: .75rem; overflow-x: auto; }
.notice { border-left: 4px solid #c60; padding: .25rem .75rem; background: #fff4e5; }
.errors li { color: #b00; }
.warnings li { color: #a60; }
</style>
</head>
<body>
<header>
<h1>Template preview</h1>
{{#fallback}}<p class="notice">The template failed to render; showing the default template.</p>{{/fallback}}
{{#hasErrors}}<ul class="errors">{{#errors}}<li>{{.}}</li>{{/errors}}</ul>{{/hasErrors}}
{{#hasWarnings}}<ul class="warnings">{{#warnings}}<li>{{.}}</li>{{/warnings}}</ul>{{/hasWarnings}}
<p id="status" class="notice" hidden></p>
</header>
{{#frontmatter}}<pre class="frontmatter">---
{{frontmatter}}
---</pre>{{/frontmatter}}
<main>
{{{html}}}
</main>
<details>
<summary>Markdown source</summary>
<pre>{{markdown}}</pre>
</details>
<script nonce="{{nonce}}">
(function () {
  var status = document.getElementById("status");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "reload") {
      location.reload();
    } else if (msg.type === "error") {
      status.textContent = msg.message;
      status.hidden = false;
    }
  };
  ws.onclose = function () {
    status.textContent = "Disconnected from the preview server.";
    status.hidden = false;
  };
})();
</script>
</body>
</html>
`

func (p Page) values(nonce string) map[string]interface{} {
	return map[string]interface{}{
		"nonce":       nonce,
		"fallback":    p.Fallback,
		"hasErrors":   len(p.Diagnostics.Errors) > 0,
		"errors":      stringsToValues(p.Diagnostics.Errors),
		"hasWarnings": len(p.Diagnostics.Warnings) > 0,
		"warnings":    stringsToValues(p.Diagnostics.Warnings),
		"frontmatter": p.Frontmatter,
		"html":        p.HTML,
		"markdown":    p.Markdown,
	}
}

func stringsToValues(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

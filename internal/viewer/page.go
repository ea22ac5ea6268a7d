package viewer

import "html/template"

type pageData struct {
	SessionID string
	IDParam   string
	Dialect   string
}

// Markup arrives sanitized from the session buffer and is injected as HTML.
var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .SessionID}}{{.SessionID}} · {{end}}termroom</title>
<style>
body { margin: 0; font-family: system-ui, sans-serif; background: #111; color: #ddd; }
header { display: flex; gap: .75rem; align-items: center; padding: .5rem 1rem; background: #1b1b1b; }
header h1 { font-size: 1rem; margin: 0; flex: 1; }
.badge { padding: .1rem .5rem; border-radius: .75rem; font-size: .8rem; background: #444; }
.badge.active { background: #1f6f2b; }
#output { margin: 0; padding: 1rem; height: calc(100vh - 9rem); overflow-y: auto;
  font-family: ui-monospace, monospace; font-size: .9rem; white-space: pre-wrap; word-break: break-all; }
#error { display: none; padding: .5rem 1rem; background: #6b1d1d; }
#error.shown { display: flex; gap: 1rem; }
#notice { padding: 0 1rem; color: #e0b04a; min-height: 1.2rem; }
form.cmd { display: flex; gap: .5rem; padding: .5rem 1rem; }
form.cmd input { flex: 1; font-family: ui-monospace, monospace; }
</style>
</head>
<body>
{{if .SessionID}}
<header>
  <h1>{{.Dialect}} {{.SessionID}}</h1>
  <span id="active" class="badge">unknown</span>
  <button id="start" type="button">Start</button>
  <button id="stop" type="button">Stop</button>
  <button id="clear" type="button">Clear</button>
</header>
<div id="error"><span id="error-text"></span><button id="dismiss" type="button">Dismiss</button></div>
<pre id="output"></pre>
<div id="notice"></div>
<form class="cmd" id="cmd">
  <input id="input" autocomplete="off" autofocus placeholder="command">
  <button type="submit">Send</button>
</form>
<script>
(function () {
  var id = {{.SessionID}};
  var param = {{.IDParam}};
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws?" + param + "=" + encodeURIComponent(id));
  var out = document.getElementById("output");
  var input = document.getElementById("input");
  var badge = document.getElementById("active");
  var errBox = document.getElementById("error");
  var send = function (msg) { if (ws.readyState === 1) ws.send(JSON.stringify(msg)); };

  ws.onmessage = function (ev) {
    var v = JSON.parse(ev.data);
    var stick = out.scrollTop + out.clientHeight >= out.scrollHeight - 4;
    out.innerHTML = v.markup;
    if (stick) out.scrollTop = out.scrollHeight;
    badge.textContent = v.active_known ? v.active_label : "unknown";
    badge.className = "badge" + (v.active ? " active" : "");
    if (document.activeElement !== input || v.input === "") input.value = v.input;
    document.getElementById("error-text").textContent = v.error || "";
    errBox.className = v.error ? "shown" : "";
    document.getElementById("notice").textContent = v.notice || "";
  };
  ws.onclose = function () { document.getElementById("notice").textContent = "disconnected"; };

  input.addEventListener("input", function () { send({type: "input", text: input.value}); });
  document.getElementById("cmd").addEventListener("submit", function (e) {
    e.preventDefault();
    send({type: "submit", text: input.value});
  });
  document.getElementById("clear").onclick = function () { send({type: "clear"}); };
  document.getElementById("dismiss").onclick = function () { send({type: "dismiss"}); };
  document.getElementById("stop").onclick = function () { send({type: "stop"}); };
  document.getElementById("start").onclick = function () {
    var host = prompt("Host");
    if (!host) return;
    var user = prompt("User") || "";
    var password = prompt("Password") || "";
    send({type: "start", host: host, user: user, password: password});
  };
})();
</script>
{{else}}
<form method="get" action="/" class="cmd">
  <input name="{{.IDParam}}" placeholder="{{.IDParam}}" autofocus>
  <button type="submit">Open</button>
</form>
{{end}}
</body>
</html>
`))

package api

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

func renderPage(w io.Writer, v StateView) error {
	return pageTemplate.Execute(w, v)
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SolTip</title>
</head>
<body>
<main>
  <h1>SolTip</h1>
  <p>Support your favorite creators with SOL</p>

  <section id="wallet">
  {{- if .Wallet.Connected}}
    <form method="post" action="/wallet/disconnect">
      <button type="submit" title="{{.Wallet.PublicKey}}">{{.ShortKey}} (disconnect)</button>
    </form>
  {{- else}}
    <form method="post" action="/wallet/connect">
      <select name="wallet">
      {{- range .Wallet.Available}}
        <option value="{{.}}"{{if eq . $.Wallet.Selected}} selected{{end}}>{{.}}</option>
      {{- end}}
      </select>
      <button type="submit">Select Wallet</button>
    </form>
  {{- end}}
  </section>

  {{- if .Notice}}
  <p id="notice">{{.Notice}}</p>
  {{- end}}

  {{- if .Wallet.Connected}}
  <form id="tip-form" method="post" action="/tip">
    <label for="creatorAddress">Creator Address</label>
    <input type="text" id="creatorAddress" name="creator" value="{{.Creator}}" required placeholder="Enter creator's Solana address">
    <label for="tipAmount">Tip Amount (SOL)</label>
    <input type="number" id="tipAmount" name="amount" value="{{.Amount}}" required min="0.000001" step="0.000001" placeholder="0.00">
    <button type="submit" id="submit"{{if .Submitting}} disabled{{end}}>{{if .Submitting}}Processing...{{else}}Send Tip{{end}}</button>
  </form>
  {{- else}}
  <p>Connect your wallet to send tips</p>
  {{- end}}

  <div id="banner" data-status="{{.Banner.Status}}"{{if not .Banner.Visible}} hidden{{end}}>
    <p>{{.Banner.Message}}</p>
  </div>

  {{- if .Wallet.Connected}}
  <section id="history">
    <h2>Tip History</h2>
    <ul>
    {{- range .History}}
      <li>{{.Display}}</li>
    {{- else}}
      <li>{{.EmptyHistory}}</li>
    {{- end}}
    </ul>
    {{- if .History}}
    <p id="tip-total">Total sent: {{.TipTotal}} SOL</p>
    {{- end}}
  </section>
  {{- end}}

  {{- if .Creator}}
  <section id="creator">
    <h2>Creator Profile</h2>
    <p>Address: {{.Creator}}</p>
    <p id="balance">{{.Balance.Display}}</p>
  </section>
  {{- end}}
</main>
<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (ev) {
    var s = JSON.parse(ev.data);
    var banner = document.getElementById("banner");
    banner.dataset.status = s.banner.status;
    banner.hidden = s.banner.status === "idle" || !s.banner.message;
    banner.querySelector("p").textContent = s.banner.message;
    var balance = document.getElementById("balance");
    if (balance) { balance.textContent = s.balance.display; }
    var submit = document.getElementById("submit");
    if (submit) {
      submit.disabled = s.submitting;
      submit.textContent = s.submitting ? "Processing..." : "Send Tip";
    }
    var list = document.querySelector("#history ul");
    if (list) {
      list.innerHTML = "";
      var lines = s.history.length ? s.history.map(function (h) { return h.display; }) : ["No tips sent yet."];
      lines.forEach(function (line) {
        var li = document.createElement("li");
        li.textContent = line;
        list.appendChild(li);
      });
      var total = document.getElementById("tip-total");
      if (total) { total.textContent = "Total sent: " + s.tip_total + " SOL"; }
    }
    if (!s.submitting && s.amount === "") {
      var amount = document.getElementById("tipAmount");
      if (amount) { amount.value = ""; }
    }
  };
})();
</script>
</body>
</html>
`

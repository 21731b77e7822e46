package dashboard

const layoutTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>Student Score Predictor - {{.State.Page.Title}}</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; background-color: #f5f5f5; }
        .layout { display: flex; min-height: 100vh; }
        nav { width: 220px; background: #2c3e50; color: #fff; padding: 20px; }
        nav a { display: block; color: #ecf0f1; padding: 8px 0; text-decoration: none; }
        nav a.active { font-weight: bold; color: #1abc9c; }
        main { flex: 1; padding: 24px; }
        .card { background: #fff; border-radius: 8px; padding: 20px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; }
        .metric-value { font-size: 2em; font-weight: bold; }
        .error { color: #c0392b; }
        table { border-collapse: collapse; width: 100%; font-size: 0.9em; }
        th, td { border-bottom: 1px solid #ddd; padding: 6px 8px; text-align: left; }
        .bar { background: #3498db; height: 14px; }
        .progress { background: #ecf0f1; border-radius: 4px; height: 18px; }
        .progress div { background: #27ae60; height: 18px; border-radius: 4px; }
        label { display: block; margin-top: 12px; font-weight: 600; }
        select, button { margin-top: 4px; padding: 6px; min-width: 240px; }
    </style>
</head>
<body>
<div class="layout">
    <nav>
        <h3>Navigation</h3>
        {{range .Pages}}<a href="/?page={{.}}"{{if eq . $.State.Page}} class="active"{{end}}>{{.Title}}</a>{{end}}
        <p><small>backend: {{.Backend}}<br>model: {{.ModelVersion}}</small></p>
    </nav>
    <main>
        {{if .State.Err}}<div class="card error">{{.State.Err}}</div>{{end}}

        {{if eq .State.Page.String "home"}}
        <div class="card">
            <h1>Student Performance Prediction</h1>
            <p>Predict math, reading and writing scores from five student attributes:
            gender, race/ethnicity, parental level of education, lunch type and test preparation.</p>
            <p>Use <a href="/?page=data">Data</a> to inspect the dataset, <a href="/?page=graphs">Graphs</a>
            for score distributions and <a href="/?page=predict">Predict</a> to run the model.</p>
        </div>
        {{end}}

        {{if eq .State.Page.String "data"}}
        <div class="card">
            <h2>Dataset</h2>
            {{if .HasData}}
            <p>{{.Rows}} rows, {{.Cols}} columns</p>
            <table>
                <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
                {{range .Preview}}
                <tr><td>{{.Gender}}</td><td>{{.RaceEthnicity}}</td><td>{{.ParentalEducation}}</td><td>{{.Lunch}}</td>
                    <td>{{.TestPreparation}}</td><td>{{f1 .Math}}</td><td>{{f1 .Reading}}</td><td>{{f1 .Writing}}</td></tr>
                {{end}}
            </table>
            {{else}}<p>No dataset loaded.</p>{{end}}
        </div>
        {{if .HasData}}
        <div class="card">
            <h2>Summary statistics</h2>
            <table>
                <tr><th></th><th>count</th><th>mean</th><th>std</th><th>min</th><th>25%</th><th>50%</th><th>75%</th><th>max</th></tr>
                {{range .Summary}}
                <tr><th>{{.Column}}</th><td>{{.Count}}</td><td>{{f2 .Mean}}</td><td>{{f2 .Std}}</td><td>{{f1 .Min}}</td>
                    <td>{{f1 .P25}}</td><td>{{f1 .P50}}</td><td>{{f1 .P75}}</td><td>{{f1 .Max}}</td></tr>
                {{end}}
            </table>
        </div>
        {{end}}
        {{end}}

        {{if eq .State.Page.String "graphs"}}
        {{if .HasData}}
        <div class="grid">
            {{range .Histograms}}
            <div class="card">
                <h3>{{.Title}}</h3>
                <table>{{range .Bars}}<tr><td>{{.Label}}</td><td style="width:60%"><div class="bar" style="width: {{.Width}}%"></div></td><td>{{.Count}}</td></tr>{{end}}</table>
            </div>
            {{end}}
        </div>
        <div class="grid">
            {{range .Categories}}
            <div class="card">
                <h3>{{.Title}}</h3>
                <table>{{range .Bars}}<tr><td>{{.Label}}</td><td style="width:60%"><div class="bar" style="width: {{.Width}}%"></div></td><td>{{.Count}}</td></tr>{{end}}</table>
            </div>
            {{end}}
        </div>
        {{else}}<div class="card"><p>No dataset loaded.</p></div>{{end}}
        {{end}}

        {{if eq .State.Page.String "predict"}}
        <div class="card">
            <h2>Student Info</h2>
            <form method="POST" action="/predict">
                {{range .Selects}}
                <label for="{{.Key}}">{{.Label}}</label>
                <select id="{{.Key}}" name="{{.Key}}">
                    {{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>{{end}}
                </select>
                {{end}}
                <p><button type="submit">Predict scores</button></p>
            </form>
        </div>
        {{with .State.Result}}
        <div class="card">
            <h2>Predicted scores</h2>
            <div class="grid">
                <div><div>Math</div><div class="metric-value" id="math">{{f1 .Scores.Math}}</div></div>
                <div><div>Reading</div><div class="metric-value" id="reading">{{f1 .Scores.Reading}}</div></div>
                <div><div>Writing</div><div class="metric-value" id="writing">{{f1 .Scores.Writing}}</div></div>
                <div><div>Average</div><div class="metric-value" id="average">{{f1 .Average}}</div></div>
            </div>
            <p>Overall performance</p>
            <div class="progress"><div style="width: {{.Progress}}%"></div></div>
        </div>
        {{end}}
        {{end}}
    </main>
</div>
</body>
</html>
`

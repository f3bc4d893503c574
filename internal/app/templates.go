package app

import "html/template"

// Top-level data-slot regions are diffed independently by the router.

var applyTemplate = template.Must(template.New("apply").Parse(`
<div class="application" id="application">
<div data-slot="progress">{{if not .Confirmation}}
<ol class="step-indicator">{{range .Steps}}
<li class="step-card{{if .Active}} active{{else if .Completed}} completed{{end}}" data-live-click="goto" data-live-value-step="{{.N}}"><span class="step-number">{{.N}}</span> {{.Title}}</li>{{end}}
</ol>
<div class="progress-bar"><div class="progress-fill" id="progressFill" style="width: {{.Percent}}%"></div></div>
<p class="progress-text"><span id="currentStep">{{.StepLabel}}</span> &middot; <span id="progressPercentage">{{.PercentLabel}}</span></p>
{{if .Restored}}<p class="notice" id="draftRestored">Your saved progress has been restored.</p>{{end}}
{{end}}</div>
{{range .Steps}}<div data-slot="{{.ID}}">{{if not $.Confirmation}}{{template "step" .}}{{end}}</div>
{{end}}
<div data-slot="confirmation">{{with .Confirmation}}
<section class="confirmation" id="confirmation">
<h2>{{.Title}}</h2>
<p>Your application reference number: <strong id="applicationReference">{{.Reference}}</strong></p>
<h3>Next Steps</h3>
<ol>{{range .NextSteps}}<li>{{.}}</li>{{end}}</ol>
<h3>Important Information</h3>
<ul>{{range .ImportantInfo}}<li>{{.}}</li>{{end}}</ul>
<p class="links">{{range .Links}}<a class="btn" href="{{.Href}}">{{.Label}}</a> {{end}}</p>
</section>{{end}}</div>
</div>

{{define "step"}}
<form id="{{.ID}}" class="form-step application-form{{if .Active}} active{{end}}"{{if .Last}} data-live-submit="submit"{{end}} novalidate>
<h2>Step {{.N}}: {{.Title}}</h2>
{{if .Review}}
<div class="review-section">
<h3>Application Summary</h3>
<dl>{{range .Review}}<dt>{{.Label}}</dt><dd id="{{.ID}}">{{.Value}}</dd>{{end}}</dl>
<h3>Documents</h3>
<ul class="document-status">{{range .Documents}}<li>{{.Label}}: <span id="{{.ID}}" class="status-value{{if .OK}} success{{end}}">{{.Status}}</span></li>{{end}}</ul>
</div>
<h3>Declarations</h3>
{{end}}
{{range .Fields}}{{template "field" .}}{{end}}
{{if .DocsError}}<div class="error-message" id="documentsError">{{.DocsError}}</div>{{end}}
<div class="form-actions">
{{if not .First}}<button type="button" class="btn btn-secondary prev-step" data-live-click="prev">Previous</button>{{end}}
{{if .Last}}{{with .Submit}}
<button type="submit" id="submitApplication" class="btn"{{if not .Enabled}} disabled{{end}}>{{.Label}}</button>
{{if .Submitting}}<button type="button" class="btn btn-secondary" id="cancelSubmission" data-live-click="cancel">Cancel</button>{{end}}
{{if .Notice}}<div class="notice" id="submitNotice">{{.Notice}}</div>{{end}}
{{end}}{{else}}<button type="button" class="btn next-step" data-live-click="next">Next</button>{{end}}
</div>
</form>
{{end}}

{{define "field"}}
<div class="form-group{{if .Error}} error{{end}}{{if .Hidden}} hidden{{end}}" id="{{.Name}}Group">
{{if eq .Type "checkbox"}}
<label class="checkbox"><input type="checkbox" id="{{.Name}}" name="{{.Name}}"{{if .Checked}} checked{{end}}> {{.Label}}</label>
{{else}}
<label for="{{.Name}}">{{.Label}}{{if .Required}} <span class="required">*</span>{{end}}</label>
{{if eq .Type "select"}}<select id="{{.Name}}" name="{{.Name}}"><option value="">Select...</option>{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
{{else if eq .Type "textarea"}}<textarea id="{{.Name}}" name="{{.Name}}" rows="3" placeholder="{{.Placeholder}}">{{.Value}}</textarea>
{{else if eq .Type "radio"}}<div class="radio-group" id="{{.Name}}">{{range .Options}}<label><input type="radio" name="{{$.Name}}" value="{{.Value}}"{{if .Selected}} checked{{end}}> {{.Label}}</label>{{end}}</div>
{{else if eq .Type "file"}}<input type="file" id="{{.Name}}" name="{{.Name}}" accept="{{.Accept}}">
<div class="file-status" id="{{.Name}}Status">{{.Status}}</div>
{{else}}<input type="{{.Type}}" id="{{.Name}}" name="{{.Name}}" value="{{.Value}}" placeholder="{{.Placeholder}}">{{if .Unit}} <span class="unit">{{.Unit}}</span>{{end}}
{{end}}
{{end}}
{{if .Help}}<small class="help">{{.Help}}</small>{{end}}
<div class="error-message" id="{{.Name}}Error">{{.Error}}</div>
</div>
{{end}}
`))

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`
<div class="dashboard" id="dashboard">
<h1>My Applications</h1>
<div data-slot="drafts">{{if .Drafts}}<p class="notice" id="draftNotice">You have an application in progress ({{.Drafts}} of 5 sections saved). <a href="/apply">Continue your application</a></p>{{end}}</div>
<div data-slot="applications">{{if .Applications}}
<table id="applicationsTable">
<thead><tr><th>Application ID</th><th>Submitted</th><th>Status</th></tr></thead>
<tbody>{{range .Applications}}<tr><td>{{.ID}}</td><td>{{.Submitted}}</td><td><span class="status status-{{.Status}}">{{.Label}}</span></td></tr>{{end}}</tbody>
</table>
{{else}}<p id="noApplications">You have not submitted an application yet. <a class="btn" href="/apply">Start Application</a></p>{{end}}</div>
<p><button type="button" class="btn btn-secondary" data-live-click="refresh">Refresh</button></p>
</div>
`))

var adminTemplate = template.Must(template.New("admin").Parse(`
<div class="admin" id="adminDashboard">
<h1>Recruitment Dashboard</h1>
<div data-slot="stats"><div class="stats">
<div class="stat-card"><span class="stat-value" id="totalApplications">{{.Total}}</span> Total Applications</div>
{{range .Counts}}<div class="stat-card"><span class="stat-value" id="count-{{.Status}}">{{.Count}}</span> {{.Label}}</div>{{end}}
</div></div>
<div data-slot="actions"><div class="quick-actions">{{range .Actions}}<button type="button" class="btn" data-live-click="action" data-live-value-kind="{{.Kind}}">{{.Label}}</button> {{end}}</div>
{{if .Notice}}<p class="notice" id="adminNotice">{{.Notice}}</p>{{end}}</div>
<div data-slot="filters"><div class="filters">
<input type="search" id="searchApplications" name="search" value="{{.Search}}" placeholder="Search applications...">
<select id="statusFilter" name="status"><option value="">All Statuses</option>{{range .Statuses}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<input type="date" id="dateFrom" name="from" value="{{.From}}">
<input type="date" id="dateTo" name="to" value="{{.To}}">
</div></div>
<div data-slot="table">
<table id="applicationsTable">
<thead><tr><th><input type="checkbox" name="checkAll"{{if .AllChecked}} checked{{end}}></th>{{range .Columns}}<th class="sortable{{if .Dir}} sort-{{.Dir}}{{end}}" data-live-click="sort" data-live-value-col="{{.Index}}">{{.Label}}</th>{{end}}<th>Actions</th></tr></thead>
<tbody>{{range .Rows}}<tr class="{{if .Active}}active{{end}}">
<td><input type="checkbox" name="check:{{.ID}}"{{if .Checked}} checked{{end}}></td>
<td data-live-click="select" data-live-value-id="{{.ID}}">{{.ID}}</td><td data-live-click="select" data-live-value-id="{{.ID}}">{{.Name}}</td><td><span class="status status-{{.Status}}">{{.StatusLabel}}</span></td><td>{{.Date}}</td>
<td><button type="button" class="btn btn-secondary" data-live-click="action" data-live-value-kind="review" data-live-value-target="{{.ID}}">Review</button>
<button type="button" class="btn btn-secondary" data-live-click="action" data-live-value-kind="message" data-live-value-target="{{.ID}}">Message</button></td>
</tr>{{else}}<tr><td colspan="6" id="noResults">No applications match the current filters.</td></tr>{{end}}</tbody>
</table>
{{if .Paginated}}<div class="pagination">
<button type="button" class="btn btn-secondary" data-live-click="page" data-live-value-n="{{.Prev}}"{{if not .HasPrev}} disabled{{end}}>Previous</button>
<span id="pageInfo">{{.PageLabel}}</span>
<button type="button" class="btn btn-secondary" data-live-click="page" data-live-value-n="{{.Next}}"{{if not .HasNext}} disabled{{end}}>Next</button>
</div>{{end}}
</div>
</div>
`))

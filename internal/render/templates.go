package render

import "html/template"

var projectPageTemplate = template.Must(template.New("project").Parse(projectPageHTML))

const projectPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.SiteUpper}}</title>
    <link rel="stylesheet" href="styles.css">
    <link rel="stylesheet" href="project-styles.css">
</head>
<body>
    <header class="mobile-header">
        <div class="mobile-header-top">
            <div class="mobile-logo-section">
                <a href="index.html"><img src="images/logo5.png" alt="Logo" class="mobile-logo"></a>
                <span class="mobile-name">{{.SiteUpper}}</span>
            </div>
            <div class="mobile-subtitle-section">
{{- range .SubtitleWords}}
                <div class="mobile-subtitle-line">{{.}}</div>
{{- end}}
            </div>
            <div class="mobile-header-icons">
                <a href="contact.html"><img src="images/contacts.png" alt="Contact" class="mobile-contact-icon"></a>
                <div class="mobile-menu-icon" id="mobile-menu-toggle"><span></span></div>
            </div>
        </div>
        <div class="mobile-burger-menu" id="mobile-burger-menu">
            <a href="index.html">Home</a>
            <a href="about.html">About</a>
            <a href="contact.html">Contact</a>
            <div class="mobile-menu-divider">PROJECTS</div>
{{- range .Nav}}
            <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>
{{- end}}
        </div>
        <div class="mobile-menu-overlay" id="mobile-menu-overlay"></div>
        <div class="mobile-nav-wrapper">
            <nav class="mobile-nav">
{{- range .Nav}}
                <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Category}}</a>
{{- end}}
            </nav>
        </div>
    </header>

    <div class="container">
        <aside class="sidebar">
            <div class="logo-section">
                <a href="index.html"><img src="images/logo5.png" alt="Logo" class="logo"></a>
                <h1 class="name">{{.SiteUpper}}</h1>
                <p class="designer-subtitle">{{.Subtitle}}</p>
                <nav class="top-nav">
                    <a href="about.html">About</a>
                    <a href="contact.html">Contact</a>
                </nav>
            </div>
            <div class="projects-menu">
                <h2>PROJECTS</h2>
                <nav class="project-links">
{{- range .Nav}}
                    <a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>
{{- end}}
                </nav>
            </div>
        </aside>

        <main class="main-content">
            <div class="project-header">
                <h3 class="project-category" id="categoryTitle">{{.Category}}</h3>
            </div>

            <div class="project-images">
{{- range .Sections}}
{{- $section := .}}
<div class="gallery-section">
    <h2 class="project-title">{{.Title}}</h2>
{{- if .Description}}
    <p class="project-description">{{.Description}}</p>
{{- end}}
<div class="bin-packed-layout">
{{- range .Rows}}
<div class="bin-packed-row{{if .Hidden}} hidden-row{{end}}" style="margin-bottom: {{$section.Gap}}px;" data-section="{{$section.Key}}">
{{- range .Cells}}
<div class="gallery-image-wrapper{{if .AnimationVideo}} animation-video{{end}}" style="margin-right: {{.MarginRight}}px; cursor: pointer;" data-index="{{.Index}}">
{{- if .IsVideo}}
    <video poster="{{.Thumb}}" style="width: {{.Width}}px; height: {{.Height}}px; object-fit: cover; display: block;" muted loop playsinline{{if .Autoplay}} autoplay{{end}} data-has-audio="false" preload="metadata">
        <source src="{{.Src}}" type="{{.VideoType}}">
        Your browser does not support the video tag.
    </video>
{{- else}}
    <img src="{{.Thumb}}" data-full-src="{{.Src}}" alt="" style="width: {{.Width}}px; height: {{.Height}}px; object-fit: cover; display: block;" loading="lazy">
{{- end}}
{{- if .Overlay}}
    <div class="gallery-image-overlay">
        <div class="gallery-image-description">{{.Description}}</div>
    </div>
{{- end}}
{{- if .SoundButton}}
    <button class="sound-toggle-btn{{if .Inverted}} inverted{{end}}" data-muted="true" style="display: none;">
        <svg width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
            <path d="M11 5L6 9H2v6h4l5 4V5z"/>
            <path class="sound-on-indicator" d="M15.54 8.46a5 5 0 0 1 0 7.07" stroke-width="2"/>
            <path class="sound-on-indicator" d="M19.07 4.93a10 10 0 0 1 0 14.14" stroke-width="2"/>
            <line class="sound-off-indicator" x1="23" y1="9" x2="17" y2="15" stroke-width="2"/>
            <line class="sound-off-indicator" x1="17" y1="9" x2="23" y2="15" stroke-width="2"/>
        </svg>
    </button>
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
</div>
{{- if .SeeMore}}
<div class="see-more-container"><button class="see-more-btn" data-section="{{.Key}}">See more</button></div>
{{- end}}
</div>
{{- end}}
            </div>
        </main>
    </div>

    <div class="lightbox" id="lightbox">
        <button class="lightbox-close" id="lightboxClose">&times;</button>
        <button class="lightbox-arrow prev" id="lightboxPrev">&#8249;</button>
        <div class="lightbox-content">
            <div class="lightbox-image-wrapper">
                <img id="lightboxImage" src="" alt="">
                <div class="lightbox-description" id="lightboxDescription"></div>
            </div>
        </div>
        <button class="lightbox-arrow next" id="lightboxNext">&#8250;</button>
    </div>

    <script src="mobile-menu.js"></script>
    <script src="mobile-menu-alignment.js"></script>
    <script src="mobile-project-gallery.js"></script>
{{- if .Animation}}
    <script src="mobile-animation-play.js"></script>
    <script src="mobile-animation-gifs.js"></script>
{{- end}}
    <script src="lightbox.js"></script>
    <script src="image-protection.js"></script>
    <script>
        var lightboxImages = {{.Lightbox}};
        initLightbox(lightboxImages);
    </script>
</body>
</html>
`

package browser

import (
	"encoding/json"
	"fmt"
)

// percentNodesJS collects elements with a direct text node containing '%'.
// Formatted with withArgs (zone keywords), so literal percent signs are doubled.
const percentNodesJS = `((zones) => {
  const zoneOf = (el) => {
    for (let a = el.parentElement; a && a !== document.documentElement; a = a.parentElement) {
      const attrs = ((a.getAttribute('class') || '') + ' ' + (a.id || '')).toLowerCase();
      const z = zones.find((k) => attrs.includes(k));
      if (z) return z;
    }
    return '';
  };
  const out = [];
  for (const el of document.querySelectorAll('body *')) {
    let own = '';
    for (const n of el.childNodes) {
      if (n.nodeType === Node.TEXT_NODE) own += n.textContent;
    }
    if (!own.includes('%%')) continue;
    const p = el.parentElement;
    const label = p ? (p.innerText || '') : '';
    const gp = p ? p.parentElement : null;
    const siblings = p ? Array.from(p.children).map((c) => (c.innerText || '').trim()).filter((t) => t) : [];
    const r = el.getBoundingClientRect();
    out.push({
      text: (el.innerText || own).trim(),
      parent: label,
      container: label + ' ' + (gp ? (gp.innerText || '') : ''),
      siblings: siblings.join(' '),
      zone: zoneOf(el),
      x: r.x,
      y: r.y,
    });
  }
  return out;
})(%s)`

// percentGroupsJS lists, in document order, elements holding at least two
// percentage elements.
const percentGroupsJS = `(() => {
  const counts = new Map();
  for (const el of document.querySelectorAll('body *')) {
    let own = '';
    for (const n of el.childNodes) {
      if (n.nodeType === Node.TEXT_NODE) own += n.textContent;
    }
    if (!own.includes('%')) continue;
    for (let a = el.parentElement; a && a !== document.documentElement; a = a.parentElement) {
      counts.set(a, (counts.get(a) || 0) + 1);
    }
  }
  const out = [];
  for (const el of document.querySelectorAll('body, body *')) {
    const n = counts.get(el) || 0;
    if (n >= 2) out.push({ text: (el.innerText || '').trim(), count: n });
  }
  return out;
})()`

// barCandidatesJS collects elements whose width encodes a percentage: inline
// width, aria-valuenow, or the width relative to the parent.
const barCandidatesJS = `(() => {
  const out = [];
  for (const el of document.querySelectorAll('body *')) {
    const styleAttr = (el.getAttribute('style') || '').toLowerCase();
    const m = styleAttr.match(/width\s*:\s*(\d+(?:\.\d+)?)%/);
    let pct = m ? parseFloat(m[1]) : null;
    if (pct === null) {
      const aria = el.getAttribute('aria-valuenow');
      if (aria && /^\d+(?:\.\d+)?$/.test(aria)) pct = parseFloat(aria);
    }
    const rect = el.getBoundingClientRect();
    if (pct === null) {
      const p = el.parentElement;
      if (p) {
        const pr = p.getBoundingClientRect();
        if (pr.width > 0 && rect.width > 0 && pr.width >= rect.width) {
          const est = (rect.width / pr.width) * 100;
          if (est >= 0.5 && est <= 100) pct = est;
        }
      }
    }
    if (pct === null) continue;
    out.push({
      pct: pct,
      bg: window.getComputedStyle(el).backgroundColor,
      x: rect.x,
      y: rect.y,
      w: rect.width,
      h: rect.height,
    });
  }
  return out;
})()`

// findTextJS matches an element on its own text nodes, or on its innerText
// when none of its children holds the phrase alone (banners split over spans).
const findTextJS = `((needles) => {
  const hit = (t) => {
    const up = (t || '').toUpperCase();
    return needles.some((n) => up.includes(n.toUpperCase()));
  };
  const out = [];
  for (const el of document.querySelectorAll('body *')) {
    let own = '';
    for (const n of el.childNodes) {
      if (n.nodeType === Node.TEXT_NODE) own += n.textContent;
    }
    let text = own;
    if (!hit(own)) {
      text = el.innerText || '';
      if (!hit(text)) continue;
      if (Array.from(el.children).some((c) => hit(c.innerText))) continue;
    }
    const cs = window.getComputedStyle(el);
    const r = el.getBoundingClientRect();
    out.push({
      text: text.trim(),
      visible: cs.display !== 'none' && cs.visibility !== 'hidden' && r.width > 0 && r.height > 0,
    });
  }
  return out;
})(%s)`

const findByAttrJS = `((keys) => {
  const out = [];
  for (const el of document.querySelectorAll('body *')) {
    const cls = el.getAttribute('class') || '';
    const id = el.id || '';
    const attrs = (cls + ' ' + id).toLowerCase();
    if (!keys.some((k) => attrs.includes(k.toLowerCase()))) continue;
    const cs = window.getComputedStyle(el);
    out.push({
      text: (el.innerText || '').trim(),
      style: (el.getAttribute('style') || '') + ';color: ' + cs.color + ';background-color: ' + cs.backgroundColor,
      class: cls,
      id: id,
    });
  }
  return out;
})(%s)`

// loggedInJS looks for logout links or account widgets.
const loggedInJS = `(() => {
  const text = document.body ? (document.body.innerText || '') : '';
  if (text.includes('Sair') || text.includes('Logout')) return true;
  if (document.querySelector('[class*="logout"], [href*="logout"]')) return true;
  return document.querySelector('[class*="balance"], [class*="user"], [class*="profile"], [id*="balance"]') !== null;
})()`

const scrollTopJS = `window.scrollTo(0, 0)`

// withArgs fills the single %s placeholder of tmpl with args encoded as a JS array literal.
func withArgs(tmpl string, args []string) (string, error) {
	if args == nil {
		args = []string{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode script arguments: %w", err)
	}
	return fmt.Sprintf(tmpl, data), nil
}

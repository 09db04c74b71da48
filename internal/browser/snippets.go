// internal/browser/snippets.go
package browser

// jsCSSPath is the shared structural selector builder injected into every
// snapshot and lookup snippet. Short paths anchored at the nearest id,
// capped at eight segments, at most two classes per segment.
const jsCSSPath = `
function cssPath(node) {
  if (!(node instanceof Element)) return "";
  const segments = [];
  let current = node;
  while (current && current.nodeType === Node.ELEMENT_NODE && segments.length < 8) {
    let part = current.tagName.toLowerCase();
    if (current.id) {
      part += '#' + CSS.escape(current.id);
      segments.unshift(part);
      break;
    }
    const classes = Array.from(current.classList).slice(0, 2);
    if (classes.length) {
      part += classes.map((cls) => '.' + CSS.escape(cls)).join('');
    } else if (current.parentElement) {
      const siblings = Array.from(current.parentElement.children).filter((item) => item.tagName === current.tagName);
      if (siblings.length > 1) {
        part += ':nth-of-type(' + (siblings.indexOf(current) + 1) + ')';
      }
    }
    segments.unshift(part);
    current = current.parentElement;
  }
  return segments.join(' > ');
}`

// jsMatchCount counts selector matches; invalid selector syntax is a
// non-match, never a thrown error.
const jsMatchCount = `
(() => {
  try {
    return document.querySelectorAll(%s).length;
  } catch (e) {
    return 0;
  }
})()`

// jsFindByText returns the css path of the deepest, first-in-document
// element whose normalized text equals the target, or "".
const jsFindByText = `
(() => {
  ` + jsCSSPath + `
  const target = %s;
  if (!target || !document.body) return "";
  const norm = (value) => (value || '').replace(/\s+/g, ' ').trim();
  const matches = Array.from(document.body.querySelectorAll('*'))
    .filter((el) => norm(el.innerText !== undefined ? el.innerText : el.textContent) === target);
  if (!matches.length) return "";
  const deepest = matches.find((el) => !matches.some((other) => other !== el && el.contains(other)));
  return deepest ? cssPath(deepest) : "";
})()`

// jsPathForSelector recomputes the structural path of the first node
// matching a selector.
const jsPathForSelector = `
(() => {
  ` + jsCSSPath + `
  try {
    const el = document.querySelector(%s);
    return el ? cssPath(el) : "";
  } catch (e) {
    return "";
  }
})()`

// jsSnapshotCandidates serializes up to maxCandidates element nodes under
// body in document order.
const jsSnapshotCandidates = `
(() => {
  ` + jsCSSPath + `
  function visible(el) {
    if (!(el instanceof HTMLElement)) return false;
    const rect = el.getBoundingClientRect();
    const style = window.getComputedStyle(el);
    return rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden';
  }
  return Array.from(document.querySelectorAll('body *')).slice(0, %d).map((el) => ({
    selector: cssPath(el),
    tag: el.tagName.toLowerCase(),
    id: el.id || '',
    class_name: el.className || '',
    name: el.getAttribute('name') || '',
    role: el.getAttribute('role') || '',
    text: (el.textContent || '').replace(/\s+/g, ' ').trim().slice(0, 140),
    visible: visible(el)
  }));
})()`

// jsContentBlocks serializes content-bearing nodes for relevance scoring,
// skipping excluded subtrees and fragments under 20 characters.
const jsContentBlocks = `
(() => {
  ` + jsCSSPath + `
  const excludeSelectors = %s;
  const candidates = Array.from(document.querySelectorAll('main, article, section, div, p, li, h1, h2, h3'));
  return candidates
    .filter((el) => {
      if (!(el instanceof HTMLElement)) return false;
      if (!el.innerText || el.innerText.trim().length < 20) return false;
      return !excludeSelectors.some((selector) => {
        try {
          return el.matches(selector) || !!el.closest(selector);
        } catch {
          return false;
        }
      });
    })
    .slice(0, %d)
    .map((el) => ({
      selector: cssPath(el),
      text: (el.innerText || '').replace(/\s+/g, ' ').trim().slice(0, 500),
      tag: el.tagName.toLowerCase()
    }));
})()`

// jsReadText reads the rendered text of the first selector match.
const jsReadText = `
(() => {
  try {
    const el = document.querySelector(%s);
    if (!el) return "";
    return el.innerText !== undefined ? el.innerText : (el.textContent || '');
  } catch (e) {
    return "";
  }
})()`

// jsReadAttribute reads one attribute of the first selector match,
// distinguishing an absent attribute from an empty value.
const jsReadAttribute = `
(() => {
  try {
    const el = document.querySelector(%s);
    if (!el) return { present: false, value: "" };
    const value = el.getAttribute(%s);
    if (value === null) return { present: false, value: "" };
    return { present: true, value: value };
  } catch (e) {
    return { present: false, value: "" };
  }
})()`
